package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/haguru/myblog/config"
	"github.com/haguru/myblog/internal/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MAXPOOLSIZE = 20
	IDFIELD     = "_id"
	SEQFIELD    = "seq"

	// CountersCollection holds one document per named sequence.
	CountersCollection = "counters"
)

// MongoDBClient implements the interfaces.DBClient and interfaces.SequenceGenerator interfaces.
type MongoDBClient struct {
	ServerOpts       *options.ServerAPIOptions
	client           *mongo.Client
	db               *mongo.Database
	databaseName     string
	timeout          time.Duration
	validCollections map[string]bool // A map to validate collection names
	validFields      map[string]bool // A map to validate field names
}

// NewMongoDB returns an unconnected client configured from dbConfig.
func NewMongoDB(dbConfig *config.MongoDBConfig) *MongoDBClient {
	return &MongoDBClient{
		databaseName:     dbConfig.DatabaseName,
		timeout:          dbConfig.Timeout,
		ServerOpts:       config.BuildServerAPIOptions(dbConfig.Options),
		validCollections: config.ListToMap(dbConfig.ValidCollections),
		validFields:      config.ListToMap(dbConfig.ValidFields),
	}
}

// Connect establishes a connection to the MongoDB server at dsn and selects the configured database.
// The DSN must start with "mongodb://" or "mongodb+srv://".
func (m *MongoDBClient) Connect(ctx context.Context, dsn string) error {
	if err := validateDSN(dsn); err != nil {
		return err
	}
	if m.databaseName == "" {
		return fmt.Errorf("MongoDBClient: database name is empty")
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	clientOptions := options.Client().ApplyURI(dsn)
	if m.ServerOpts != nil {
		clientOptions.SetServerAPIOptions(m.ServerOpts)
	}
	clientOptions.SetMaxPoolSize(MAXPOOLSIZE)
	clientOptions.SetReadPreference(readpref.PrimaryPreferred())

	var err error
	m.client, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("MongoDBClient: failed to connect: %w", err)
	}

	if err = m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDBClient: failed to ping MongoDB server: %w", err)
	}

	m.db = m.client.Database(m.databaseName)
	return nil
}

// Disconnect closes the connection to the MongoDB server.
func (m *MongoDBClient) Disconnect(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// InsertOne inserts a sanitized copy of document and returns the driver assigned _id.
func (m *MongoDBClient) InsertOne(ctx context.Context, collectionName string, document interfaces.Document) (interface{}, error) {
	if err := m.checkCollection(collectionName); err != nil {
		return nil, err
	}

	sanitized, err := m.sanitizeDocument(document)
	if err != nil {
		return nil, err
	}

	res, err := m.db.Collection(collectionName).InsertOne(ctx, sanitized)
	if err != nil {
		return nil, fmt.Errorf("MongoDBClient: failed to insert one into %s: %w", collectionName, err)
	}

	return res.InsertedID, nil
}

// FindOne decodes the first document matching filter into result.
func (m *MongoDBClient) FindOne(ctx context.Context, collectionName string, filter interfaces.Document, result interfaces.Document) error {
	if err := m.checkCollection(collectionName); err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return err
	}

	err = m.db.Collection(collectionName).FindOne(ctx, sanitizedFilter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", collectionName, interfaces.ErrNoDocument)
	}
	if err != nil {
		return fmt.Errorf("MongoDBClient: failed to find one in %s: %w", collectionName, err)
	}

	return nil
}

// Exists reports whether at least one document in collectionName matches filter.
func (m *MongoDBClient) Exists(ctx context.Context, collectionName string, filter interfaces.Document) (bool, error) {
	if err := m.checkCollection(collectionName); err != nil {
		return false, err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return false, err
	}

	count, err := m.db.Collection(collectionName).CountDocuments(ctx, sanitizedFilter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("MongoDBClient: failed to count in %s: %w", collectionName, err)
	}

	return count > 0, nil
}

// NextSequence atomically increments and returns the named counter, starting at 1.
func (m *MongoDBClient) NextSequence(ctx context.Context, name string) (int64, error) {
	if err := m.checkCollection(CountersCollection); err != nil {
		return 0, err
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.db.Collection(CountersCollection).FindOneAndUpdate(ctx,
		bson.M{IDFIELD: name},
		bson.M{"$inc": bson.M{SEQFIELD: int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: failed to advance sequence %s: %w", name, err)
	}

	return counter.Seq, nil
}

// Ping verifies the MongoDB connection health using a ping command.
func (m *MongoDBClient) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("MongoDBClient is not connected")
	}
	return m.client.Ping(ctx, nil)
}

// EnsureSchema creates the indexes in schema on collectionName. schema is either a
// mongo.IndexModel or a []mongo.IndexModel. The collection is created implicitly.
func (m *MongoDBClient) EnsureSchema(ctx context.Context, collectionName string, schema interfaces.Document) error {
	if err := m.checkCollection(collectionName); err != nil {
		return err
	}

	var models []mongo.IndexModel
	switch s := schema.(type) {
	case mongo.IndexModel:
		models = []mongo.IndexModel{s}
	case []mongo.IndexModel:
		models = s
	default:
		return fmt.Errorf("EnsureSchema: expected mongo.IndexModel or []mongo.IndexModel, got %T", schema)
	}
	if len(models) == 0 {
		return nil
	}

	if _, err := m.db.Collection(collectionName).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("MongoDBClient: failed to create indexes on %s: %w", collectionName, err)
	}
	return nil
}

func (m *MongoDBClient) checkCollection(collectionName string) error {
	if m.db == nil {
		return fmt.Errorf("MongoDBClient is not connected to a database")
	}
	if collectionName == "" {
		return fmt.Errorf("MongoDBClient: collection name cannot be empty")
	}
	if !m.validCollections[collectionName] {
		return fmt.Errorf("MongoDBClient: invalid collection name: %s", collectionName)
	}
	return nil
}

// sanitizeDocument copies document keeping only allow-listed field names.
// The _id field and any key containing '$' or '.' are dropped to block operator injection.
func (m *MongoDBClient) sanitizeDocument(document interfaces.Document) (bson.M, error) {
	var docMap map[string]interface{}
	switch d := document.(type) {
	case bson.M:
		docMap = d
	case map[string]interface{}:
		docMap = d
	case nil:
		return nil, fmt.Errorf("MongoDBClient: document is nil")
	default:
		return nil, fmt.Errorf("MongoDBClient: expected map document, got %T", document)
	}

	sanitized := bson.M{}
	for key, value := range docMap {
		if key == IDFIELD {
			continue
		}
		if !m.validFields[key] || strings.ContainsAny(key, "$.") {
			continue
		}
		sanitized[key] = value
	}
	if len(sanitized) == 0 {
		return nil, fmt.Errorf("MongoDBClient: document has no valid fields")
	}

	return sanitized, nil
}

func validateDSN(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("MongoDBClient: DSN is empty")
	}
	if !strings.HasPrefix(dsn, "mongodb://") && !strings.HasPrefix(dsn, "mongodb+srv://") {
		return fmt.Errorf("MongoDBClient: invalid DSN format, expected 'mongodb://' or 'mongodb+srv://'")
	}
	return nil
}
