// Package topo provides MongoDB connection and collection enumeration
// helpers.
package topo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/percona/percona-dbcopy-mongodb/config"
	"github.com/percona/percona-dbcopy-mongodb/errors"
)

// SystemCollectionPrefix marks internally reserved collections. They are
// never enumerated, dumped, or restored.
const SystemCollectionPrefix = "system."

// CleanURI strips a common connection-string typo: a trailing dot before
// the port number (e.g. "10.0.0.15.:27017"). It is skipped when the
// no-uri-cleanup option is set.
func CleanURI(uri string) string {
	return strings.ReplaceAll(uri, ".:", ":")
}

// Connect connects to a MongoDB deployment and verifies it is reachable.
// Connection failure is fail-fast: no retry, no reconnection.
func Connect(ctx context.Context, uri string, cfg *config.Config) (*mongo.Client, error) {
	if !cfg.NoURICleanup {
		uri = CleanURI(uri)
	}

	opts := options.Client().
		ApplyURI(uri).
		SetAppName(config.AppName)

	if cfg.MongoDB.OperationTimeout > 0 {
		opts.SetTimeout(cfg.MongoDB.OperationTimeout)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(context.Background())

		return nil, errors.Wrap(err, "ping")
	}

	return client, nil
}

// ListCollectionNames returns a list of non-system collection names in the
// specified database.
func ListCollectionNames(ctx context.Context, m *mongo.Client, dbName string) ([]string, error) {
	//nolint:wrapcheck
	return m.Database(dbName).ListCollectionNames(ctx,
		bson.D{{Key: "name", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$regex", Value: "^system\\."}}}}}})
}

// ServerVersion returns the server version string of the connected
// deployment.
func ServerVersion(ctx context.Context, m *mongo.Client) (string, error) {
	var buildInfo struct {
		Version string `bson:"version"`
	}

	err := m.Database("admin").
		RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).
		Decode(&buildInfo)
	if err != nil {
		return "", errors.Wrap(err, "buildInfo")
	}

	return buildInfo.Version, nil
}
