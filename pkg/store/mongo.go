package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gregorycrane/tb2ud/pkg/cache"
	"github.com/gregorycrane/tb2ud/pkg/conllu"
	"github.com/gregorycrane/tb2ud/pkg/converr"
)

// MongoStore keeps documents in MongoDB, one collection per corpus, for
// deployments where several converter instances share a corpus.
type MongoStore struct {
	client *mongo.Client
	db     string
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	// URI is the mongodb:// connection string.
	URI string
	// Database is the database name ("tb2ud" when empty).
	Database string
}

// mongoDoc is the stored BSON shape. List queries project Data away.
type mongoDoc struct {
	ID         string    `bson:"_id"`
	Sentences  int       `bson:"sentences"`
	ImportedAt time.Time `bson:"imported_at"`
	Data       string    `bson:"data,omitempty"`
}

// NewMongoStore connects to MongoDB and verifies the connection. The ping
// retries with backoff: when the database starts next to the converter, the
// first attempts routinely race it.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (Store, error) {
	if cfg.URI == "" {
		return nil, converr.New(converr.ErrCodeInvalidConfig, "mongo uri required")
	}
	db := cfg.Database
	if db == "" {
		db = "tb2ud"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "connect to mongo")
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "ping mongo")
	}

	return &MongoStore{client: client, db: db}, nil
}

func (s *MongoStore) collection(corpus string) *mongo.Collection {
	return s.client.Database(s.db).Collection(corpus)
}

func (s *MongoStore) Put(ctx context.Context, doc Document) error {
	if err := validateKey(doc.Corpus, doc.ID); err != nil {
		return err
	}
	stamp(&doc)

	var sb strings.Builder
	if err := conllu.Write(doc.Trees, &sb); err != nil {
		return err
	}

	_, err := s.collection(doc.Corpus).ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		mongoDoc{
			ID:         doc.ID,
			Sentences:  doc.Sentences,
			ImportedAt: doc.ImportedAt,
			Data:       sb.String(),
		},
		options.Replace().SetUpsert(true))
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "store %s/%s", doc.Corpus, doc.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, corpus, id string) (Document, error) {
	if err := validateKey(corpus, id); err != nil {
		return Document{}, err
	}

	var md mongoDoc
	err := s.collection(corpus).FindOne(ctx, bson.M{"_id": id}).Decode(&md)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, converr.New(converr.ErrCodeNotFound, "document %s/%s", corpus, id)
	}
	if err != nil {
		return Document{}, converr.Wrap(converr.ErrCodeInternal, err, "fetch %s/%s", corpus, id)
	}

	trees, err := conllu.Read(strings.NewReader(md.Data))
	if err != nil {
		return Document{}, err
	}
	return Document{
		Meta: Meta{
			Corpus:     corpus,
			ID:         id,
			Sentences:  md.Sentences,
			ImportedAt: md.ImportedAt,
		},
		Trees: trees,
	}, nil
}

func (s *MongoStore) List(ctx context.Context, corpus string) ([]Meta, error) {
	if err := converr.ValidateDocumentID(corpus); err != nil {
		return nil, err
	}

	cur, err := s.collection(corpus).Find(ctx, bson.M{},
		options.Find().
			SetProjection(bson.M{"data": 0}).
			SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "list corpus %s", corpus)
	}
	defer cur.Close(ctx)

	metas := []Meta{}
	for cur.Next(ctx) {
		var md mongoDoc
		if err := cur.Decode(&md); err != nil {
			return nil, converr.Wrap(converr.ErrCodeInternal, err, "decode document")
		}
		metas = append(metas, Meta{
			Corpus:     corpus,
			ID:         md.ID,
			Sentences:  md.Sentences,
			ImportedAt: md.ImportedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, converr.Wrap(converr.ErrCodeInternal, err, "list corpus %s", corpus)
	}
	return metas, nil
}

func (s *MongoStore) Delete(ctx context.Context, corpus, id string) error {
	if err := validateKey(corpus, id); err != nil {
		return err
	}

	res, err := s.collection(corpus).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return converr.Wrap(converr.ErrCodeInternal, err, "delete %s/%s", corpus, id)
	}
	if res.DeletedCount == 0 {
		return converr.New(converr.ErrCodeNotFound, "document %s/%s", corpus, id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
