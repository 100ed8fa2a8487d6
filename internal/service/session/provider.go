package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"activity-insights/config"
	"activity-insights/pkg/logger"
	"activity-insights/pkg/queue"
	"activity-insights/pkg/recordstore"
	"activity-insights/pkg/storage"
)

var (
	serviceOnce sync.Once
	serviceInst *SessionService
	serviceErr  error
)

// GetService builds the fully wired session service from configuration:
// storage sink, optional record-store backup and the background queue. The
// server and worker binaries share it.
func GetService(log logger.Logger) (*SessionService, error) {
	serviceOnce.Do(func() {
		storageCfg := config.GetStorageConfig()
		store, err := storage.NewStorage(storageCfg, log)
		if err != nil {
			serviceErr = fmt.Errorf("failed to create storage: %w", err)
			return
		}

		var records recordstore.Store
		if mongoCfg := config.GetMongoConfig(); mongoCfg.Enabled {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			records, err = recordstore.NewMongoStore(ctx, mongoCfg, log)
			if err != nil {
				serviceErr = fmt.Errorf("failed to create record store: %w", err)
				return
			}
		}

		appCfg := config.GetAppConfig()
		serviceInst = NewService(
			store,
			records,
			queue.New(config.GetRedisConfig()),
			log,
			&Config{
				DataDir:         appCfg.DataDir,
				YearAwareMonths: appCfg.YearAwareMonths,
				RetentionDays:   storageCfg.RetentionDays,
			},
		)
	})
	return serviceInst, serviceErr
}
