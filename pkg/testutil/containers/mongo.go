//go:build integration

package containers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoContainer runs a single node replica set so transactions work.
type MongoContainer struct {
	Container *tcmongo.MongoDBContainer
	URI       string
	Client    *mongo.Client
}

func startMongo(ctx context.Context) (*MongoContainer, error) {
	container, err := tcmongo.Run(ctx, "mongo:7", tcmongo.WithReplicaSet("rs0"))
	if err != nil {
		return nil, fmt.Errorf("start mongo: %w", err)
	}
	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("mongo connection string: %w", err)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetDirect(true))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoContainer{Container: container, URI: uri, Client: client}, nil
}

// FreshDatabase returns an empty database with a unique name so suites can
// share the container.
func (m *MongoContainer) FreshDatabase(prefix string) *mongo.Database {
	name := prefix + "_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	return m.Client.Database(name)
}
