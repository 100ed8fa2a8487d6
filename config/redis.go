package config

import (
	"sync"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

// RedisConfig configures the task queue backing store.
type RedisConfig struct {
	Addr        string
	DB          int
	Concurrency int
}

func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadDotEnv()
		redisConfig = &RedisConfig{
			Addr:        envOr("REDIS_ADDR", "localhost:6379"),
			DB:          intEnv("REDIS_DB", 0),
			Concurrency: intEnv("WORKER_CONCURRENCY", 5),
		}
	})
	return redisConfig
}
