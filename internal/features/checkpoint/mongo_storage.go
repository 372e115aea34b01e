package checkpoint

import (
	"context"
	"errors"

	"go-portal-sync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoDocumentID = "sync_records"

type mongoDocument struct {
	ID       string `bson:"_id"`
	Document `bson:",inline"`
}

// MongoStorage keeps the checkpoint document as one MongoDB document.
type MongoStorage struct {
	collection *mongo.Collection
}

func NewMongoStorage(db *database.MongodbDB) *MongoStorage {
	return newMongoStorage(db.DB.Collection("sync_checkpoints"))
}

func newMongoStorage(collection *mongo.Collection) *MongoStorage {
	return &MongoStorage{collection: collection}
}

func (r *MongoStorage) Load(ctx context.Context) (*Document, error) {
	var stored mongoDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": mongoDocumentID}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if stored.SyncRecords == nil {
		stored.SyncRecords = []SyncCheckpoint{}
	}
	return &stored.Document, nil
}

func (r *MongoStorage) Save(ctx context.Context, doc *Document) error {
	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": mongoDocumentID},
		mongoDocument{ID: mongoDocumentID, Document: *doc},
		options.Replace().SetUpsert(true),
	)
	return err
}
