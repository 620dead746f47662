package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

const JournalCollection = "journals"

type journalDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Content     string             `bson:"content"`
	Tags        []string           `bson:"tags"`
	CreatedBy   string             `bson:"created_by"`
	Published   bool               `bson:"published"`
	PublishedAt time.Time          `bson:"published_at"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func toDocument(entry *models.JournalEntry) journalDocument {
	return journalDocument{
		Title:       entry.Title,
		Content:     entry.Content,
		Tags:        entry.Tags,
		CreatedBy:   entry.CreatedBy,
		Published:   entry.Published,
		PublishedAt: entry.PublishedAt,
		CreatedAt:   entry.CreatedAt,
	}
}

func (d journalDocument) toEntry() models.JournalEntry {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.JournalEntry{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Content:     d.Content,
		Tags:        tags,
		CreatedBy:   d.CreatedBy,
		Published:   d.Published,
		PublishedAt: d.PublishedAt,
		CreatedAt:   d.CreatedAt,
	}
}

// MongoJournalStore stores journals in a MongoDB collection.
type MongoJournalStore struct {
	col *mongo.Collection
}

func NewMongoJournalStore(col *mongo.Collection) *MongoJournalStore {
	return &MongoJournalStore{col: col}
}

// EnsureIndexes creates the indexes backing the teacher and student feeds.
// Called on startup from main after Mongo has connected.
func (s *MongoJournalStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_by", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_created_by_created_at"),
		},
		{
			Keys: bson.D{
				{Key: "tags", Value: 1},
				{Key: "published", Value: 1},
				{Key: "published_at", Value: -1},
			},
			Options: options.Index().SetName("idx_tags_published"),
		},
	}

	if _, err := s.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (s *MongoJournalStore) Create(ctx context.Context, entry *models.JournalEntry) error {
	doc := toDocument(entry)
	doc.ID = primitive.NewObjectID()

	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert journal")
	}

	entry.ID = doc.ID.Hex()
	return nil
}

func (s *MongoJournalStore) FindByID(ctx context.Context, id string) (*models.JournalEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id can't name an existing document.
		return nil, errors.WithStack(models.ErrNotFound)
	}

	var doc journalDocument
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.WithStack(models.ErrNotFound)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find journal %s", id)
	}

	entry := doc.toEntry()
	return &entry, nil
}

func (s *MongoJournalStore) Find(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error) {
	query := bson.M{}
	if filter.CreatedBy != "" {
		query["created_by"] = filter.CreatedBy
	}
	if filter.Tag != "" {
		// Equality on an array field matches any element.
		query["tags"] = filter.Tag
	}
	if filter.PublishedOnly {
		query["published"] = true
	}
	if filter.PublishedBefore != nil {
		query["published_at"] = bson.M{"$lte": filter.PublishedBefore.UTC()}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.col.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find journals")
	}
	defer cursor.Close(ctx)

	var docs []journalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode journals")
	}

	entries := make([]models.JournalEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, doc.toEntry())
	}
	return entries, nil
}

func (s *MongoJournalStore) Save(ctx context.Context, entry *models.JournalEntry) error {
	oid, err := primitive.ObjectIDFromHex(entry.ID)
	if err != nil {
		return errors.WithStack(models.ErrNotFound)
	}

	doc := toDocument(entry)
	doc.ID = oid

	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return errors.Wrapf(err, "replace journal %s", entry.ID)
	}
	if res.MatchedCount == 0 {
		return errors.WithStack(models.ErrNotFound)
	}
	return nil
}

func (s *MongoJournalStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.WithStack(models.ErrNotFound)
	}

	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrapf(err, "delete journal %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.WithStack(models.ErrNotFound)
	}
	return nil
}
