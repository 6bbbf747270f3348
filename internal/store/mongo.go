package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ahsanfayaz52/notespark/internal/models"
)

type MongoBackend struct {
	coll *mongo.Collection
}

func NewMongoBackend(db *mongo.Database) *MongoBackend {
	return &MongoBackend{coll: db.Collection("notes")}
}

// EnsureIndexes creates the index backing the owner query.
func (b *MongoBackend) EnsureIndexes(ctx context.Context) error {
	_, err := b.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: ownerQuerySort(bson.D{{Key: "user_id", Value: 1}}),
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (b *MongoBackend) Insert(ctx context.Context, n models.Note) error {
	if _, err := b.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (b *MongoBackend) FindByID(ctx context.Context, id string) (models.Note, error) {
	var n models.Note
	err := b.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("find note %s: %w", id, err)
	}
	return normalizeNote(n), nil
}

func (b *MongoBackend) ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error) {
	opts := options.Find().SetSort(ownerQuerySort(nil))

	cursor, err := b.coll.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []models.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	for i := range notes {
		notes[i] = normalizeNote(notes[i])
	}
	return notes, nil
}

func (b *MongoBackend) Update(ctx context.Context, id string, u models.NoteUpdate) error {
	res, err := b.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":      u.Title,
		"content":    u.Content,
		"tags":       u.Tags,
		"updated_at": u.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *MongoBackend) Delete(ctx context.Context, id string) error {
	res, err := b.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Version summarises owner's documents the same way SQLBackend.Version does.
func (b *MongoBackend) Version(ctx context.Context, ownerID string) (string, error) {
	cursor, err := b.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": ownerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"count":   bson.M{"$sum": 1},
			"created": bson.M{"$max": "$created_at"},
			"updated": bson.M{"$max": "$updated_at"},
		}}},
	})
	if err != nil {
		return "", fmt.Errorf("note version: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Count   int64      `bson:"count"`
		Created time.Time  `bson:"created"`
		Updated *time.Time `bson:"updated"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return "", fmt.Errorf("decode note version: %w", err)
	}
	if len(rows) == 0 {
		return "0", nil
	}
	r := rows[0]
	v := fmt.Sprintf("%d|%d", r.Count, r.Created.UnixNano())
	if r.Updated != nil {
		v += fmt.Sprintf("|%d", r.Updated.UnixNano())
	}
	return v, nil
}

// ownerQuerySort appends the newest-first ordering to prefix.
func ownerQuerySort(prefix bson.D) bson.D {
	return append(prefix,
		bson.E{Key: "created_at", Value: -1},
		bson.E{Key: "_id", Value: -1},
	)
}

func normalizeNote(n models.Note) models.Note {
	n.CreatedAt = n.CreatedAt.UTC()
	if n.UpdatedAt != nil {
		t := n.UpdatedAt.UTC()
		n.UpdatedAt = &t
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n
}
