package repomanager

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/letters"
	"github.com/dmitrijs2005/letterdesk/internal/server/repositories/templates"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoRepositoryManager vends MongoDB backed repositories.
type MongoRepositoryManager struct {
	client *mongo.Client
	db     *mongo.Database
}

// databaseName extracts the database from a mongodb:// or mongodb+srv://
// URI path, defaulting to the application name.
func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return common.AppName
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return common.AppName
}

// NewMongoRepositoryManager connects to uri and verifies the connection.
func NewMongoRepositoryManager(ctx context.Context, uri string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoRepositoryManager{client: client, db: client.Database(databaseName(uri))}, nil
}

func (m *MongoRepositoryManager) Templates() templates.Repository {
	return templates.NewMongoRepository(m.db)
}

func (m *MongoRepositoryManager) Letters() letters.Repository {
	return letters.NewMongoRepository(m.db)
}

// RunMigrations creates the index used to find a template by zone id.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	_, err := m.db.Collection(templates.CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "zones.id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
