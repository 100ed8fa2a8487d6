package recordstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"activity-insights/config"
	"activity-insights/internal/dataset"
	"activity-insights/pkg/logger"
)

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        logger.Logger
}

func NewMongoStore(ctx context.Context, cfg *config.MongoConfig, log logger.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to record store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping record store: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		log:        log,
	}, nil
}

// InsertRecords implements Store. Documents keep the table's column order.
func (s *MongoStore) InsertRecords(ctx context.Context, table *dataset.Table) (int, error) {
	if table.NumRows() == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, table.NumRows())
	for _, row := range table.Rows {
		doc := make(bson.D, 0, len(table.Columns))
		for _, col := range table.Columns {
			doc = append(doc, bson.E{Key: col, Value: row[col]})
		}
		docs = append(docs, doc)
	}

	result, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert records: %w", err)
	}

	s.log.Info("Backed up records to record store",
		logger.Int("inserted", len(result.InsertedIDs)),
	)
	return len(result.InsertedIDs), nil
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
