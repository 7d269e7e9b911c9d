package interfaces

import (
	"context"
	"errors"
)

// ErrNoDocument is returned (wrapped) by FindOne when nothing matches the filter.
var ErrNoDocument = errors.New("no document found")

// Document is a generic interface to represent data that can be stored
// and retrieved from the database. It could be a struct, a map[string]interface{},
// or any type that can be marshaled/unmarshaled by the specific database driver.
type Document interface{}

// DBClient defines the interface for a generic database client.
// It abstracts common database operations across different database types (e.g., MongoDB, SQL).
type DBClient interface {
	// Connect establishes a connection to the database.
	// It takes a context for cancellation and timeouts, and a DSN (Data Source Name) string.
	Connect(ctx context.Context, dsn string) error

	// Disconnect closes the database connection.
	Disconnect(ctx context.Context) error

	// InsertOne inserts a single document into the specified collection/table
	// and returns the ID the database assigned to it.
	InsertOne(ctx context.Context, collectionName string, document Document) (interface{}, error)

	// FindOne retrieves a single document matching filter and decodes it into result.
	// Returns an error wrapping ErrNoDocument when nothing matches.
	FindOne(ctx context.Context, collectionName string, filter Document, result Document) error

	// Exists reports whether at least one document matches filter.
	Exists(ctx context.Context, collectionName string, filter Document) (bool, error)

	// EnsureSchema applies driver specific schema (migrations, indexes) to the collection/table.
	EnsureSchema(ctx context.Context, collectionName string, schema Document) error

	// Ping checks the health of the database connection.
	Ping(ctx context.Context) error
}

// SequenceGenerator hands out monotonically increasing integer ids for stores
// that have no native auto-increment.
type SequenceGenerator interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}
