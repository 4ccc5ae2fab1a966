package configuration

import (
	"errors"
	"os"
	"strconv"
	"time"

	"social-integration/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Publish     Publish     `json:"publish"`
	Platforms   Platforms   `json:"platforms"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	// Vendor selects the credential store: postgres (default), mssql or mysql
	Vendor string `json:"vendor"`
	Psql   Db     `json:"psql"`
	MySql  Db     `json:"mysql"`
	Mongo  Db     `json:"mongo"`
	Mssql  Db     `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

// Publish tunes the orchestration layer. Durations are in seconds.
type Publish struct {
	TimeoutSeconds      int `json:"timeoutSeconds"`
	PollIntervalSeconds int `json:"pollIntervalSeconds"`
	PollMaxAttempts     int `json:"pollMaxAttempts"`
	FanOutLimit         int `json:"fanOutLimit"`
	VerifyAfterSeconds  int `json:"verifyAfterSeconds"`
	RefreshSkewSeconds  int `json:"refreshSkewSeconds"`
	JobTTLSeconds       int `json:"jobTTLSeconds"`
}

func (p Publish) Timeout() time.Duration      { return seconds(p.TimeoutSeconds) }
func (p Publish) PollInterval() time.Duration { return seconds(p.PollIntervalSeconds) }
func (p Publish) VerifyAfter() time.Duration  { return seconds(p.VerifyAfterSeconds) }
func (p Publish) RefreshSkew() time.Duration  { return seconds(p.RefreshSkewSeconds) }
func (p Publish) JobTTL() time.Duration       { return seconds(p.JobTTLSeconds) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

var C Config

func init() {
	Reload()
}

// Reload re-reads the config file and environment into C, e.g. after env files were loaded.
func Reload() {
	C = Config{}
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initMessaging(&C)
	initPublish(&C.Publish)
	initPlatforms(&C.Platforms)
}

// LoadConfig decodes config.json (or config-$ENV.json) from the working directory or up to two
// parents. A missing file is not an error; defaults and environment fill the gaps.
func LoadConfig() {
	v := viper.New()
	v.SetConfigName(configName(os.Getenv("ENV")))
	v.SetConfigType("json")
	for _, dir := range []string{".", "..", "../.."} {
		v.AddConfigPath(dir)
	}
	v.AutomaticEnv()

	log := logger.GetLogger().WithField("config", configName(os.Getenv("ENV")))
	var notFound viper.ConfigFileNotFoundError
	switch err := v.ReadInConfig(); {
	case errors.As(err, &notFound):
		log.Warn("no config file, using environment and defaults")
		return
	case err != nil:
		log.WithField("error", err).Error("read config")
		return
	}
	if err := v.Unmarshal(&C); err != nil {
		log.WithField("error", err).Error("decode config")
		return
	}
	log.WithField("file", v.ConfigFileUsed()).Info("config loaded")
}

func configName(env string) string {
	if env == "" {
		return "config"
	}
	return "config-" + env
}

func initDatabase(C *Config) {
	C.Database.Vendor = getConfigValue(C.Database.Vendor, "DB_VENDOR", "postgres")

	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "social_integration")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "localhost")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "postgres")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")

	C.Database.Mssql.Name = getConfigValue(C.Database.Mssql.Name, "MSSQL_DB_NAME", "")
	C.Database.Mssql.Host = getConfigValue(C.Database.Mssql.Host, "MSSQL_HOST", "localhost")
	C.Database.Mssql.Port = getConfigValue(C.Database.Mssql.Port, "MSSQL_PORT", "1433")
	C.Database.Mssql.User = getConfigValue(C.Database.Mssql.User, "MSSQL_USER", "sa")
	C.Database.Mssql.Password = getConfigValue(C.Database.Mssql.Password, "MSSQL_PASSWORD", "")

	C.Database.MySql.Name = getConfigValue(C.Database.MySql.Name, "MYSQL_DB_NAME", "social_integration")
	C.Database.MySql.Host = getConfigValue(C.Database.MySql.Host, "MYSQL_HOST", "localhost")
	C.Database.MySql.Port = getConfigValue(C.Database.MySql.Port, "MYSQL_PORT", "3306")
	C.Database.MySql.User = getConfigValue(C.Database.MySql.User, "MYSQL_USER", "root")
	C.Database.MySql.Password = getConfigValue(C.Database.MySql.Password, "MYSQL_PASSWORD", "")

	C.Database.Mongo.Host = getConfigValue(C.Database.Mongo.Host, "MONGO_HOST", "")
	C.Database.Mongo.Port = getConfigValue(C.Database.Mongo.Port, "MONGO_PORT", "27017")
	C.Database.Mongo.Name = getConfigValue(C.Database.Mongo.Name, "MONGO_DB_NAME", "social_integration")
}

func initApp(C *Config) {
	C.App.SecretKey = getConfigValue(C.App.SecretKey, "SECRET_KEY", "")
	// APP_PORT wins over PORT, which wins over the file.
	for _, key := range []string{"PORT", "APP_PORT"} {
		if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
			C.App.Port = n
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if on, err := strconv.ParseBool(os.Getenv("TLS_ENABLED")); err == nil {
		C.App.TLSEnabled = on
	}
	C.App.TLSCertFile = getConfigValue(C.App.TLSCertFile, "TLS_CERT_FILE", "")
	C.App.TLSKeyFile = getConfigValue(C.App.TLSKeyFile, "TLS_KEY_FILE", "")
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("SECRET_KEY is empty, every authenticated request will be rejected")
	}
}

func initMessaging(C *Config) {
	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "localhost")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.Pubsub.Topic = getConfigValue(C.Pubsub.Topic, "PUBSUB_TOPIC", "publish-outcomes")
	C.ServiceBus.Namespace = getConfigValue(C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	C.ServiceBus.Queue = getConfigValue(C.ServiceBus.Queue, "SERVICEBUS_QUEUE", "publish-commands")
}

func initPublish(p *Publish) {
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = 300
	}
	if p.PollIntervalSeconds <= 0 {
		p.PollIntervalSeconds = 3
	}
	if p.PollMaxAttempts <= 0 {
		p.PollMaxAttempts = 60
	}
	if p.FanOutLimit <= 0 {
		p.FanOutLimit = 8
	}
	if p.RefreshSkewSeconds <= 0 {
		p.RefreshSkewSeconds = 300
	}
	if p.JobTTLSeconds <= 0 {
		p.JobTTLSeconds = 86400
	}
}
