package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

const (
	collectionUsers          = "users"
	collectionAdministrators = "administrators"
	collectionDoctors        = "doctors"
	collectionPatients       = "patients"
)

// UserRepository stores accounts in the users collection and each role
// profile in its own collection. Mongo has no cross-collection transaction
// on standalone servers, so a failed account insert deletes the profile it
// had just written.
type UserRepository struct {
	db    *mongo.Database
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, users: db.Collection(collectionUsers)}
}

var _ ports.UserRepository = (*UserRepository)(nil)

type mongoUser struct {
	ID           string    `bson:"_id"`
	LoginName    string    `bson:"login_name"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	ProfileID    string    `bson:"profile_id"`
	AvatarPath   string    `bson:"avatar_path"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type mongoAdmin struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

type mongoDoctor struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	SpecialtyID int64  `bson:"specialty_id"`
	Phone       string `bson:"phone,omitempty"`
}

type mongoPatient struct {
	ID         string `bson:"_id"`
	Name       string `bson:"name"`
	NationalID string `bson:"national_id"`
	Phone      string `bson:"phone,omitempty"`
	Email      string `bson:"email,omitempty"`
}

func profileCollection(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return collectionAdministrators
	case domain.RoleDoctor:
		return collectionDoctors
	case domain.RolePatient:
		return collectionPatients
	default:
		panic(fmt.Sprintf("mongo: unknown role %q", role))
	}
}

func (r *UserRepository) CreateWithProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	profileID := uuid.NewString()
	var doc any
	switch p := user.Profile.(type) {
	case *domain.AdminProfile:
		doc = mongoAdmin{ID: profileID, Name: p.Name, Email: p.Email}
	case *domain.DoctorProfile:
		n, err := r.db.Collection(collectionSpecialties).CountDocuments(ctx, bson.M{"_id": p.SpecialtyID})
		if err != nil {
			return nil, fmt.Errorf("check specialty: %w", err)
		}
		if n == 0 {
			return nil, domain.ErrSpecialtyNotFound
		}
		doc = mongoDoctor{ID: profileID, Name: p.Name, SpecialtyID: p.SpecialtyID, Phone: p.Phone}
	case *domain.PatientProfile:
		doc = mongoPatient{ID: profileID, Name: p.Name, NationalID: p.NationalID, Phone: p.Phone, Email: p.Email}
	default:
		panic(fmt.Sprintf("mongo: unknown profile variant %T", p))
	}

	profiles := r.db.Collection(profileCollection(user.Role))
	if _, err := profiles.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrNationalIDTaken
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	avatar := user.AvatarPath
	if avatar == "" {
		avatar = domain.NoAvatar
	}
	mu := mongoUser{
		ID:           uuid.NewString(),
		LoginName:    user.LoginName,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		ProfileID:    profileID,
		AvatarPath:   avatar,
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}
	if _, err := r.users.InsertOne(ctx, mu); err != nil {
		// compensate so no orphan profile is left behind
		_, _ = profiles.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": profileID})
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrLoginTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return r.hydrate(ctx, &mu)
}

func (r *UserRepository) FindByLoginName(ctx context.Context, loginName string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"login_name": loginName})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return r.hydrate(ctx, &mu)
}

func (r *UserRepository) List(ctx context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Role != "" {
		query["role"] = string(filter.Role)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "login_name", Value: 1}})
	cur, err := r.users.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		u, err := r.hydrate(ctx, &docs[i])
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.users.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if _, err := r.db.Collection(profileCollection(domain.Role(mu.Role))).DeleteOne(ctx, bson.M{"_id": mu.ProfileID}); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.set(ctx, id, "password_hash", hash)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, path string) error {
	return r.set(ctx, id, "avatar_path", path)
}

func (r *UserRepository) UpdateLoginName(ctx context.Context, id, loginName string) error {
	return r.set(ctx, id, "login_name", loginName)
}

func (r *UserRepository) set(ctx context.Context, id, field, value string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}}
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrLoginTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

// hydrate loads the profile document referenced by mu.
func (r *UserRepository) hydrate(ctx context.Context, mu *mongoUser) (*domain.User, error) {
	role, err := domain.ParseRole(mu.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", mu.ID, err)
	}

	u := &domain.User{
		ID:           mu.ID,
		LoginName:    mu.LoginName,
		PasswordHash: mu.PasswordHash,
		Role:         role,
		AvatarPath:   mu.AvatarPath,
		CreatedAt:    mu.CreatedAt.UTC(),
		UpdatedAt:    mu.UpdatedAt.UTC(),
	}

	res := r.db.Collection(profileCollection(role)).FindOne(ctx, bson.M{"_id": mu.ProfileID})
	switch role {
	case domain.RoleAdmin:
		var p mongoAdmin
		if err := res.Decode(&p); err != nil {
			return nil, profileError(mu, err)
		}
		u.Profile = &domain.AdminProfile{ID: p.ID, Name: p.Name, Email: p.Email}
	case domain.RoleDoctor:
		var p mongoDoctor
		if err := res.Decode(&p); err != nil {
			return nil, profileError(mu, err)
		}
		var sp mongoSpecialty
		if err := r.db.Collection(collectionSpecialties).FindOne(ctx, bson.M{"_id": p.SpecialtyID}).Decode(&sp); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find specialty: %w", err)
		}
		u.Profile = &domain.DoctorProfile{ID: p.ID, Name: p.Name, SpecialtyID: p.SpecialtyID, SpecialtyName: sp.Name, Phone: p.Phone}
	case domain.RolePatient:
		var p mongoPatient
		if err := res.Decode(&p); err != nil {
			return nil, profileError(mu, err)
		}
		u.Profile = &domain.PatientProfile{ID: p.ID, Name: p.Name, NationalID: p.NationalID, Phone: p.Phone, Email: p.Email}
	}
	return u, nil
}

func profileError(mu *mongoUser, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("user %s: profile %s missing", mu.ID, mu.ProfileID)
	}
	return fmt.Errorf("find profile: %w", err)
}
