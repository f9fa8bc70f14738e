// Package mongo provides a MongoDB-backed implementation of the
// storage.Storage interface. Users are stored one document per user
// with a driver-generated ObjectID as "_id"; the id exposed over the
// API is that ObjectID's hex form.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
)

// document is the on-disk shape of a user.
type document struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	types.UserFields `bson:",inline"`
}

func (d document) user() types.User {
	return types.User{ID: d.ID.Hex(), UserFields: d.UserFields}
}

// Mongo is the concrete implementation of storage.Storage.
// The driver's *mongo.Client pools connections and is safe for
// concurrent use.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to the server at cfg.URI, verifies the connection with
// a ping, and binds to cfg.Database / cfg.Collection.
func New(ctx context.Context, cfg config.Mongo) (*Mongo, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *Mongo) ListUsers(ctx context.Context) ([]types.User, error) {
	cur, err := m.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("ListUsers: find: %w", err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ListUsers: decode: %w", err)
	}

	users := make([]types.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.user())
	}
	return users, nil
}

func (m *Mongo) GetUserByID(ctx context.Context, id string) (types.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}

	var d document
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if err != nil {
		return types.User{}, wrapFindErr("GetUserByID", id, err)
	}
	return d.user(), nil
}

func (m *Mongo) CreateUser(ctx context.Context, fields types.UserFields) (types.User, error) {
	d := document{ID: primitive.NewObjectID(), UserFields: fields}
	if _, err := m.coll.InsertOne(ctx, d); err != nil {
		return types.User{}, fmt.Errorf("CreateUser: insert: %w", err)
	}
	return d.user(), nil
}

func (m *Mongo) InsertUsers(ctx context.Context, fields []types.UserFields) ([]types.User, error) {
	if len(fields) == 0 {
		return []types.User{}, nil
	}

	docs := make([]any, 0, len(fields))
	users := make([]types.User, 0, len(fields))
	for _, f := range fields {
		d := document{ID: primitive.NewObjectID(), UserFields: f}
		docs = append(docs, d)
		users = append(users, d.user())
	}

	if _, err := m.coll.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("InsertUsers: insert: %w", err)
	}
	return users, nil
}

// ReplaceUserByID swaps the whole document body, keeping only _id.
func (m *Mongo) ReplaceUserByID(ctx context.Context, id string, fields types.UserFields) (types.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}

	opts := options.FindOneAndReplace().SetReturnDocument(options.After)

	var d document
	err = m.coll.FindOneAndReplace(ctx, bson.M{"_id": oid}, document{UserFields: fields}, opts).Decode(&d)
	if err != nil {
		return types.User{}, wrapFindErr("ReplaceUserByID", id, err)
	}
	return d.user(), nil
}

func (m *Mongo) DeleteUserByID(ctx context.Context, id string) (types.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}

	var d document
	err = m.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d)
	if err != nil {
		return types.User{}, wrapFindErr("DeleteUserByID", id, err)
	}
	return d.user(), nil
}

func (m *Mongo) DeleteAllUsers(ctx context.Context) (int64, error) {
	res, err := m.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("DeleteAllUsers: delete: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// parseID turns the lowercase hex form returned by the API back into an
// ObjectID. Anything else, uppercase hex included, names no document.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil || oid.Hex() != id {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, storage.ErrNotFound)
	}
	return oid, nil
}

func wrapFindErr(op, id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", op, id, storage.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
