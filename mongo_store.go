package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	watchlistCollection = "watchlists"
	userCollection      = "user"
	sessionCollection   = "session"
)

type watchlistDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	UserID  string             `bson:"userId"`
	Symbol  string             `bson:"symbol"`
	Company string             `bson:"company"`
	AddedAt time.Time          `bson:"addedAt"`
}

func (w watchlistDocument) toEntry() WatchlistEntry {
	return WatchlistEntry{
		OwnerID: w.UserID,
		Symbol:  w.Symbol,
		Company: w.Company,
		AddedAt: w.AddedAt,
	}
}

type sessionDocument struct {
	Token     string    `bson:"token"`
	UserID    string    `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MongoStore is the MongoDB backed Backend. Users and sessions live in the
// "user" and "session" collections where an auth service keeps them.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "failed to ping MongoDB")
	}

	store := &MongoStore{client: client, db: client.Database(database)}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (m *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(watchlistCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "symbol", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create watchlist index")
	}

	_, err = m.db.Collection(sessionCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create session index")
	}
	return nil
}

func (m *MongoStore) AddWatchlistEntry(ctx context.Context, ownerID, symbol, company string) (WatchlistEntry, error) {
	doc := watchlistDocument{
		UserID:  ownerID,
		Symbol:  normalizeSymbol(symbol),
		Company: strings.TrimSpace(company),
		AddedAt: time.Now().UTC(),
	}

	if _, err := m.db.Collection(watchlistCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return WatchlistEntry{}, ErrAlreadyInWatchlist
		}
		return WatchlistEntry{}, errors.Wrapf(err, "failed to add %s to watchlist", doc.Symbol)
	}
	return doc.toEntry(), nil
}

func (m *MongoStore) RemoveWatchlistEntry(ctx context.Context, ownerID, symbol string) error {
	result, err := m.db.Collection(watchlistCollection).DeleteOne(ctx, bson.M{
		"userId": ownerID,
		"symbol": normalizeSymbol(symbol),
	})
	if err != nil {
		return errors.Wrap(err, "failed to remove watchlist entry")
	}
	if result.DeletedCount == 0 {
		return ErrNotInWatchlist
	}
	return nil
}

func (m *MongoStore) GetWatchlist(ctx context.Context, ownerID string) ([]WatchlistEntry, error) {
	docs, err := m.findWatchlist(ctx, ownerID, nil)
	if err != nil {
		return nil, err
	}

	entries := make([]WatchlistEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, doc.toEntry())
	}
	return entries, nil
}

// findWatchlist returns the owner's documents in insertion order.
func (m *MongoStore) findWatchlist(ctx context.Context, ownerID string, projection interface{}) ([]watchlistDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if projection != nil {
		opts.SetProjection(projection)
	}

	cursor, err := m.db.Collection(watchlistCollection).Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query watchlist")
	}

	var docs []watchlistDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode watchlist")
	}
	return docs, nil
}

func (m *MongoStore) GetWatchlistSymbolsByEmail(ctx context.Context, email string) ([]string, error) {
	symbols := []string{}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return symbols, nil
	}

	var user bson.M
	err := m.db.Collection(userCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return symbols, nil
		}
		return nil, errors.Wrap(err, "failed to query user")
	}

	ownerID := ownerIDFromDocument(user)
	if ownerID == "" {
		return symbols, nil
	}

	docs, err := m.findWatchlist(ctx, ownerID, bson.M{"symbol": 1})
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		symbols = append(symbols, doc.Symbol)
	}
	return symbols, nil
}

func (m *MongoStore) ListOwners(ctx context.Context) ([]Owner, error) {
	cursor, err := m.db.Collection(userCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}

	var users []bson.M
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "failed to decode users")
	}

	owners := make([]Owner, 0, len(users))
	for _, user := range users {
		if owner, ok := ownerFromDocument(user); ok {
			owners = append(owners, owner)
		}
	}
	return owners, nil
}

func (m *MongoStore) ResolveSession(ctx context.Context, token string) (Owner, error) {
	if token == "" {
		return Owner{}, ErrNoSession
	}

	var session sessionDocument
	err := m.db.Collection(sessionCollection).FindOne(ctx, bson.M{"token": token}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Owner{}, ErrNoSession
		}
		return Owner{}, errors.Wrap(err, "failed to query session")
	}
	if !session.ExpiresAt.After(time.Now()) {
		return Owner{}, ErrNoSession
	}

	var user bson.M
	err = m.db.Collection(userCollection).FindOne(ctx, userFilter(session.UserID)).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Owner{}, ErrNoSession
		}
		return Owner{}, errors.Wrap(err, "failed to query session user")
	}

	owner, ok := ownerFromDocument(user)
	if !ok {
		return Owner{}, ErrNoSession
	}
	return owner, nil
}

func (m *MongoStore) CreateUser(ctx context.Context, email, name string) (Owner, error) {
	owner := Owner{
		ID:    uuid.NewString(),
		Email: strings.ToLower(strings.TrimSpace(email)),
	}
	_, err := m.db.Collection(userCollection).InsertOne(ctx, bson.M{
		"id":        owner.ID,
		"email":     owner.Email,
		"name":      strings.TrimSpace(name),
		"createdAt": time.Now().UTC(),
	})
	if err != nil {
		return Owner{}, errors.Wrapf(err, "failed to create user %s", owner.Email)
	}
	return owner, nil
}

func (m *MongoStore) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	session := sessionDocument{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := m.db.Collection(sessionCollection).InsertOne(ctx, session); err != nil {
		return "", errors.Wrap(err, "failed to create session")
	}
	return session.Token, nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// ownerIDFromDocument prefers the string "id" field and falls back to _id.
func ownerIDFromDocument(doc bson.M) string {
	if id, ok := doc["id"].(string); ok && id != "" {
		return id
	}
	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func ownerFromDocument(doc bson.M) (Owner, bool) {
	id := ownerIDFromDocument(doc)
	if id == "" {
		return Owner{}, false
	}
	email, _ := doc["email"].(string)
	return Owner{ID: id, Email: email}, true
}

// userFilter matches a user by either form of id ownerIDFromDocument produces.
func userFilter(id string) bson.M {
	or := []bson.M{{"id": id}, {"_id": id}}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		or = append(or, bson.M{"_id": oid})
	}
	return bson.M{"$or": or}
}
