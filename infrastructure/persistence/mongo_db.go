package persistence

import (
	"fmt"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoURI returns an empty string when no host is configured.
func MongoURI(host, port, user, password string) string {
	if host == "" {
		return ""
	}
	u := &url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%s", host, port)}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

func NewMongoDb(host, port, user, password string) (*mongo.Client, error) {
	uri := MongoURI(host, port, user, password)
	if uri == "" {
		return nil, fmt.Errorf("mongo host is not configured")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return client, nil
}
