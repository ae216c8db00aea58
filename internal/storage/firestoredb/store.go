package firestoredb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/storage"
)

const (
	scheme         = "firestore://"
	collectionName = "documents"
)

// Store keeps each domain as one Firestore document in the documents
// collection. The body is stored as a nested map so it can be browsed in the
// console.
type Store struct {
	projectID   string
	database    string
	credentials string
	client     *firestore.Client
	collection *firestore.CollectionRef
}

type document struct {
	Body      map[string]any `firestore:"body"`
	UpdatedAt time.Time      `firestore:"updatedAt"`
}

// IsTarget reports whether target selects the Firestore backend.
func IsTarget(target string) bool {
	return strings.HasPrefix(target, scheme)
}

// New returns a store for a firestore://<project> target. The optional query
// parameters database and credentials select a named database and a service
// account key file.
func New(target string) *Store {
	rest := strings.TrimPrefix(target, scheme)
	s := &Store{}
	if project, query, ok := strings.Cut(rest, "?"); ok {
		rest = project
		if values, err := url.ParseQuery(query); err == nil {
			s.database = values.Get("database")
			s.credentials = values.Get("credentials")
		}
	}
	s.projectID = strings.Trim(rest, "/")
	return s
}

func (s *Store) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	return opts
}

func (s *Store) connect() error {
	if s.client != nil {
		return nil
	}
	if s.projectID == "" {
		return fmt.Errorf("firestore target must name a project, e.g. firestore://my-project")
	}

	database := s.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(context.Background(), s.projectID, database, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create firestore client: %w", err)
	}
	s.client = client
	s.collection = client.Collection(collectionName)
	return nil
}

func (s *Store) Init() error { return s.connect() }
func (s *Store) Load() error { return s.connect() }

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.collection = nil
	return err
}

func (s *Store) LoadDocument(ctx context.Context, domain constants.Domain) ([]byte, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	snap, err := s.collection.Doc(string(domain)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s: %w", domain, err)
	}

	var doc document
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", domain, err)
	}
	data, err := json.Marshal(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", domain, err)
	}
	return data, nil
}

func (s *Store) SaveDocument(ctx context.Context, domain constants.Domain, data []byte) error {
	if s.collection == nil {
		return fmt.Errorf("storage not loaded")
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("failed to encode %s: %w", domain, err)
	}

	doc := document{Body: body, UpdatedAt: time.Now().UTC()}
	if _, err := s.collection.Doc(string(domain)).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to save %s: %w", domain, err)
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return scheme + s.projectID
}
