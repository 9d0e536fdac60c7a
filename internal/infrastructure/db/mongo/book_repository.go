package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
)

const collectionBooks = "books"

var sortFields = map[string]string{
	"id":     "_id",
	"name":   "name",
	"autor":  "autor",
	"author": "autor",
}

// BookRepository implements ports.BookRepository using MongoDB.
type BookRepository struct {
	col *mongo.Collection
	seq *sequence
}

var _ ports.BookRepository = (*BookRepository)(nil)

func NewBookRepository(db *mongo.Database) *BookRepository {
	return &BookRepository{
		col: db.Collection(collectionBooks),
		seq: newSequence(db, collectionBooks),
	}
}

func (r *BookRepository) FindAll(ctx context.Context) ([]domain.Book, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *BookRepository) FindPage(ctx context.Context, req ports.PageRequest) ([]domain.Book, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	if int64(req.Offset()) >= total {
		return []domain.Book{}, total, nil
	}

	opts := options.Find().
		SetSort(sortDoc(req.Sort)).
		SetSkip(int64(req.Offset())).
		SetLimit(int64(req.Size))
	books, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var b domain.Book
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book %d: %w", id, err)
	}
	return &b, nil
}

func (r *BookRepository) FindByName(ctx context.Context, name string) ([]domain.Book, error) {
	return r.find(ctx, bson.M{"name": name}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *BookRepository) FindByAuthor(ctx context.Context, author string) ([]domain.Book, error) {
	return r.find(ctx, bson.M{"autor": author}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	doc := *b
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	b.ID = id
	return nil
}

func (r *BookRepository) Update(ctx context.Context, b *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return fmt.Errorf("update book %d: %w", b.ID, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// EnsureIndexes creates the lookup indexes on the books collection.
func (r *BookRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "autor", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *BookRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	books := []domain.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

// sortDoc mirrors the SQL ORDER BY rules: whitelisted fields, _id tiebreaker.
func sortDoc(sorts []ports.SortOrder) bson.D {
	d := bson.D{}
	hasID := false
	for _, s := range sorts {
		field, ok := sortFields[strings.ToLower(s.Field)]
		if !ok {
			continue
		}
		dir := 1
		if s.Direction == ports.SortDesc {
			dir = -1
		}
		if field == "_id" {
			hasID = true
		}
		d = append(d, bson.E{Key: field, Value: dir})
	}
	if !hasID {
		d = append(d, bson.E{Key: "_id", Value: 1})
	}
	return d
}
