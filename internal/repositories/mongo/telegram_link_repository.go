package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

type telegramLinkRepository struct {
	coll *mongo.Collection
}

// NewTelegramLinkRepository keys links by code. The TTL index on
// expiresAt lets the server drop stale codes on its own.
func NewTelegramLinkRepository(db *mongo.Database) repositories.TelegramLinkRepository {
	return &telegramLinkRepository{coll: db.Collection(linksCollection)}
}

func (r *telegramLinkRepository) Create(ctx context.Context, link *models.TelegramLink) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"userId": link.UserID}); err != nil {
		return err
	}
	_, err := r.coll.InsertOne(ctx, link)
	return duplicate(err)
}

func (r *telegramLinkRepository) Use(ctx context.Context, code string, now time.Time) (*models.TelegramLink, error) {
	var l models.TelegramLink
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": code, "expiresAt": bson.M{"$gt": now}}).Decode(&l)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}
