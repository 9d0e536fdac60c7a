package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

const collectionUsers = "system_users"

// UserRepository implements ports.UserRepository and ports.CredentialProvider.
type UserRepository struct {
	col *mongo.Collection
	seq *sequence
}

var (
	_ ports.UserRepository     = (*UserRepository)(nil)
	_ ports.CredentialProvider = (*UserRepository)(nil)
)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		col: db.Collection(collectionUsers),
		seq: newSequence(db, collectionUsers),
	}
}

type mongoUser struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	Username    string `bson:"username"`
	Password    string `bson:"password"`
	Authorities string `bson:"authorities"`
}

func (r *UserRepository) Name() string { return "mongo" }

func (r *UserRepository) Create(ctx context.Context, u *domain.SystemUser) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}

	doc := mongoUser{
		ID:          id,
		Name:        u.Name,
		Username:    u.Username,
		Password:    u.Password,
		Authorities: domain.JoinAuthorities(u.Authorities),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	u.ID = id
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.SystemUser, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.SystemUser{
		ID:          mu.ID,
		Name:        mu.Name,
		Username:    mu.Username,
		Password:    mu.Password,
		Authorities: domain.ParseAuthorities(mu.Authorities),
	}, nil
}

// EnsureIndexes makes username unique.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
