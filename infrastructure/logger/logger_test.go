package logger

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromEnv(t *testing.T) {
	assert.Equal(t, log.DebugLevel, levelFromEnv(""))
	assert.Equal(t, log.WarnLevel, levelFromEnv("warn"))
	assert.Equal(t, log.DebugLevel, levelFromEnv("loud"))
}

func TestGetLogger_AnnotatesCaller(t *testing.T) {
	entry := GetLogger()
	assert.Contains(t, entry.Data["function"], "TestGetLogger_AnnotatesCaller")
	assert.NotEmpty(t, entry.Data["file"])
}
