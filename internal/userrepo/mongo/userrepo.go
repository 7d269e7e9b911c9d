package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"go.mongodb.org/mongo-driver/bson"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/models"
	"github.com/haguru/myblog/internal/userrepo/constants"
)

// MongoUserRepository implements UserRepository using the generic DBClient.
// User ids are integers drawn from a counters sequence, not ObjectIDs.
type MongoUserRepository struct {
	dbClient  interfaces.DBClient
	sequencer interfaces.SequenceGenerator
}

// NewMongoUserRepository creates a new MongoDB repository instance.
// dbClient must also implement interfaces.SequenceGenerator.
func NewMongoUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	sequencer, ok := dbClient.(interfaces.SequenceGenerator)
	if !ok {
		return nil, fmt.Errorf("dbClient must be a MongoDB client with sequence support")
	}
	return &MongoUserRepository{dbClient: dbClient, sequencer: sequencer}, nil
}

// Save assigns the next users id and inserts the document.
// Unique index violations are reported as ErrDuplicateUsername or ErrDuplicateEmail.
func (r *MongoUserRepository) Save(ctx context.Context, user models.User) (*models.User, error) {
	id, err := r.sequencer.NextSequence(ctx, constants.UsersSequence)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate user id: %w", err)
	}

	doc := bson.M{
		constants.FieldID:       id,
		constants.FieldEmail:    user.Email,
		constants.FieldUsername: user.Username,
		constants.FieldPassword: user.Password,
	}
	if _, err := r.dbClient.InsertOne(ctx, constants.UsersCollection, doc); err != nil {
		return nil, translateInsertError(err)
	}

	user.ID = id
	return &user, nil
}

// FindByUsername returns (nil, nil) when no document matches.
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc bson.M
	err := r.dbClient.FindOne(ctx, constants.UsersCollection, bson.M{constants.FieldUsername: username}, &doc)
	if errors.Is(err, interfaces.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username from MongoDB: %w", err)
	}

	var user models.User
	if err := mapstructure.Decode(doc, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, constants.FieldUsername, username)
}

func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, constants.FieldEmail, email)
}

func (r *MongoUserRepository) exists(ctx context.Context, field, value string) (bool, error) {
	found, err := r.dbClient.Exists(ctx, constants.UsersCollection, bson.M{field: value})
	if err != nil {
		return false, fmt.Errorf("failed to check %s in MongoDB: %w", field, err)
	}
	return found, nil
}

// EnsureIndices creates the unique indexes on id, username and email.
func (r *MongoUserRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, constants.UsersCollection, userIndexes())
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.dbClient.Ping(ctx)
}

// Close disconnects the MongoDB client.
func (r *MongoUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}

func userIndexes() []mongosdk.IndexModel {
	unique := func(field, name string) mongosdk.IndexModel {
		return mongosdk.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(name),
		}
	}
	return []mongosdk.IndexModel{
		unique(constants.FieldID, constants.IDIndex),
		unique(constants.FieldUsername, constants.UsernameIndex),
		unique(constants.FieldEmail, constants.EmailIndex),
	}
}

// translateInsertError maps E11000 errors to the duplicate sentinel of the violated index.
func translateInsertError(err error) error {
	if mongosdk.IsDuplicateKeyError(err) {
		switch msg := err.Error(); {
		case strings.Contains(msg, constants.UsernameIndex):
			return fmt.Errorf("%w: %v", interfaces.ErrDuplicateUsername, err)
		case strings.Contains(msg, constants.EmailIndex):
			return fmt.Errorf("%w: %v", interfaces.ErrDuplicateEmail, err)
		}
	}
	return fmt.Errorf("failed to add user to MongoDB: %w", err)
}
