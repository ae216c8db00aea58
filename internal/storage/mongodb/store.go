package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/storage"
)

const (
	collectionName = "documents"
	connectTimeout = 10 * time.Second
)

// Store keeps each domain as one document in the documents collection,
// keyed by domain name. Bodies are stored as native BSON so they stay
// queryable from the mongo shell.
type Store struct {
	uri        string
	database   string
	client     *mongo.Client
	collection *mongo.Collection
}

type document struct {
	Domain    string    `bson:"_id"`
	Body      bson.Raw  `bson:"body"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// New returns a store for uri. The database name is taken from the URI path
// and defaults to the application name.
func New(uri string) *Store {
	return &Store{uri: uri, database: databaseName(uri)}
}

// IsURI reports whether target is a MongoDB connection URI.
func IsURI(target string) bool {
	return strings.HasPrefix(target, "mongodb://") || strings.HasPrefix(target, "mongodb+srv://")
}

func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return constants.AppName
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return constants.AppName
}

func (s *Store) connect() error {
	if s.client != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s.client = client
	s.collection = client.Database(s.database).Collection(collectionName)
	return nil
}

func (s *Store) Init() error {
	return s.connect()
}

func (s *Store) Load() error {
	return s.connect()
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client = nil
	s.collection = nil
	return err
}

func (s *Store) LoadDocument(ctx context.Context, domain constants.Domain) ([]byte, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": string(domain)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s: %w", domain, err)
	}

	data, err := bson.MarshalExtJSON(doc.Body, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", domain, err)
	}
	return data, nil
}

func (s *Store) SaveDocument(ctx context.Context, domain constants.Domain, data []byte) error {
	if s.collection == nil {
		return fmt.Errorf("storage not loaded")
	}

	var body bson.Raw
	if err := bson.UnmarshalExtJSON(data, false, &body); err != nil {
		return fmt.Errorf("failed to encode %s: %w", domain, err)
	}

	doc := document{Domain: string(domain), Body: body, UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": string(domain)}, doc, opts); err != nil {
		return fmt.Errorf("failed to save %s: %w", domain, err)
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return "mongodb/" + s.database
}
