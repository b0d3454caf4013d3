package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

const (
	collectionSpecialties = "specialties"
	collectionCounters    = "counters"
)

// DefaultSpecialties seeds an empty specialties collection.
var DefaultSpecialties = []string{
	"Medicina General",
	"Pediatría",
	"Cardiología",
	"Dermatología",
	"Ginecología",
	"Traumatología",
}

type mongoSpecialty struct {
	ID   int64  `bson:"_id"`
	Name string `bson:"name"`
}

// SpecialtyRepository keeps specialties with sequential numeric ids drawn
// from the counters collection.
type SpecialtyRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewSpecialtyRepository(db *mongo.Database) *SpecialtyRepository {
	return &SpecialtyRepository{
		col:      db.Collection(collectionSpecialties),
		counters: db.Collection(collectionCounters),
	}
}

var _ ports.SpecialtyRepository = (*SpecialtyRepository)(nil)

func (r *SpecialtyRepository) List(ctx context.Context) ([]domain.Specialty, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	var docs []mongoSpecialty
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode specialties: %w", err)
	}
	out := make([]domain.Specialty, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Specialty{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

func (r *SpecialtyRepository) Create(ctx context.Context, name string) (*domain.Specialty, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := r.col.InsertOne(ctx, mongoSpecialty{ID: id, Name: name}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSpecialtyExists
		}
		return nil, fmt.Errorf("insert specialty: %w", err)
	}
	return &domain.Specialty{ID: id, Name: name}, nil
}

func (r *SpecialtyRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": collectionSpecialties},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next specialty id: %w", err)
	}
	return counter.Seq, nil
}

// seed inserts DefaultSpecialties when the collection is empty.
func (r *SpecialtyRepository) seed(ctx context.Context) error {
	n, err := r.col.EstimatedDocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("count specialties: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, name := range DefaultSpecialties {
		if _, err := r.Create(ctx, name); err != nil && !errors.Is(err, domain.ErrSpecialtyExists) {
			return err
		}
	}
	return nil
}
