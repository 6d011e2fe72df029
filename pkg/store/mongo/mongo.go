// Package mongo is a [store.Store] backed by a MongoDB collection.
//
// Each record is one BSON document keyed by its id. The lifecycle and
// listing columns are indexed; the content blob is stored as binary.
//
//	s, err := mongo.Open(ctx, mongo.Config{URI: "mongodb://localhost:27017", Database: "suratkita"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
package mongo

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/store"
)

// DefaultCollection is used when Config.Collection is empty.
const DefaultCollection = "documents"

// Config configures the connection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration // connect and ping timeout; default 10s
}

// Store is a MongoDB-backed store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// item is the BSON shape of a record.
type item struct {
	ID        string    `bson:"_id"`
	Tujuan    string    `bson:"tujuan"`
	Perihal   string    `bson:"perihal"`
	Jenis     string    `bson:"jenis"`
	Status    string    `bson:"status"`
	Tanggal   time.Time `bson:"tanggal"`
	Catatan   string    `bson:"catatan,omitempty"`
	Konten    []byte    `bson:"konten"`
	OwnerID   string    `bson:"ownerId"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toItem(r *store.Record) item {
	return item{
		ID:        r.ID,
		Tujuan:    r.Tujuan,
		Perihal:   r.Perihal,
		Jenis:     string(r.Jenis),
		Status:    string(r.Status),
		Tanggal:   r.Tanggal,
		Catatan:   r.Catatan,
		Konten:    []byte(r.Konten),
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (it item) record() store.Record {
	return store.Record{
		ID:        it.ID,
		Tujuan:    it.Tujuan,
		Perihal:   it.Perihal,
		Jenis:     document.Kind(it.Jenis),
		Status:    document.Status(it.Status),
		Tanggal:   it.Tanggal,
		Catatan:   it.Catatan,
		Konten:    it.Konten,
		OwnerID:   it.OwnerID,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

// Open connects, pings and ensures the indexes exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	s := &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "jenis", Value: 1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tanggal", Value: -1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create indexes")
	}
	return nil
}

// Get implements [store.Store].
func (s *Store) Get(ctx context.Context, id string) (*store.Record, error) {
	var it item
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&it)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "get document %s", id)
	}
	rec := it.record()
	return &rec, nil
}

// Create implements [store.Store].
func (s *Store) Create(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateID(rec.ID); err != nil {
		return err
	}
	it := toItem(rec)
	if it.CreatedAt.IsZero() {
		it.CreatedAt = s.now()
	}
	_, err := s.coll.InsertOne(ctx, it)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict(rec.ID)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create document %s", rec.ID)
	}
	return nil
}

// Update implements [store.Store].
func (s *Store) Update(ctx context.Context, rec *store.Record) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": rec.ID}, bson.M{"$set": bson.M{
		"tujuan":    rec.Tujuan,
		"perihal":   rec.Perihal,
		"jenis":     string(rec.Jenis),
		"tanggal":   rec.Tanggal,
		"konten":    []byte(rec.Konten),
		"updatedAt": updatedAt,
	}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "update document %s", rec.ID)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound(rec.ID)
	}
	return nil
}

// SetStatus implements [store.Store].
func (s *Store) SetStatus(ctx context.Context, id string, status document.Status, note string) error {
	var r store.Record
	r.ApplyStatus(status, note, s.now())
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":    string(r.Status),
		"catatan":   r.Catatan,
		"updatedAt": r.UpdatedAt,
	}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "set status of %s", id)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound(id)
	}
	return nil
}

// Delete implements [store.Store].
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete document %s", id)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound(id)
	}
	return nil
}

// List implements [store.Store].
func (s *Store) List(ctx context.Context, f store.Filter) ([]store.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := s.coll.Find(ctx, filterDoc(f), opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list documents")
	}
	var items []item
	if err := cur.All(ctx, &items); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode documents")
	}
	out := make([]store.Record, len(items))
	for i, it := range items {
		out[i] = it.record()
	}
	return out, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func filterDoc(f store.Filter) bson.M {
	m := bson.M{}
	if f.Status != "" {
		m["status"] = string(f.Status)
	}
	if f.Jenis != "" {
		m["jenis"] = string(f.Jenis)
	}
	if f.OwnerID != "" {
		m["ownerId"] = f.OwnerID
	}
	return m
}

var _ store.Store = (*Store)(nil)
