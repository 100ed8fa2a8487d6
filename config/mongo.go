package config

import (
	"sync"
)

var (
	mongoOnce   sync.Once
	mongoConfig *MongoConfig
)

// MongoConfig configures the optional record-store backup. When disabled
// the prepare pipeline skips the per-record insert entirely.
type MongoConfig struct {
	Enabled    bool
	URI        string
	Database   string
	Collection string
}

func GetMongoConfig() *MongoConfig {
	mongoOnce.Do(func() {
		loadDotEnv()
		mongoConfig = &MongoConfig{
			Enabled:    boolEnv("MONGO_ENABLED", false),
			URI:        envOr("MONGO_URI", "mongodb://localhost:27017"),
			Database:   envOr("MONGO_DATABASE", "DataBackup"),
			Collection: envOr("MONGO_COLLECTION", "backup"),
		}
	})
	return mongoConfig
}
