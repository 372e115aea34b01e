package ledger

import (
	"context"
	"time"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoLedger stores rows in the integration_logs collection.
type MongoLedger struct {
	collection *mongo.Collection
}

func NewMongoLedger(db *database.MongodbDB) *MongoLedger {
	return newMongoLedger(db.DB.Collection("integration_logs"))
}

func newMongoLedger(collection *mongo.Collection) *MongoLedger {
	return &MongoLedger{collection: collection}
}

func (l *MongoLedger) Record(ctx context.Context, entry Entry) (string, error) {
	entry, err := normalize(entry, time.Now())
	if err != nil {
		return "", err
	}
	if _, err := l.collection.InsertOne(ctx, entry); err != nil {
		return "", errs.E(errs.KindPersistence, "ledger.mongo", err)
	}
	return entry.ID, nil
}
