package webhookaudit

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lumenfund/pledgeflow/internal/mmongo"
)

// MongoRepository is the Mongo-backed Writer, grounded on the teacher's
// AuditMongoDBRepository.Create.
type MongoRepository struct {
	connection *mmongo.Connection
	collection string
}

// NewMongoRepository returns a Writer backed by the given collection,
// connecting lazily on first use through connection.
func NewMongoRepository(conn *mmongo.Connection, collection string) *MongoRepository {
	return &MongoRepository{connection: conn, collection: strings.ToLower(collection)}
}

// Record inserts entry as a new document, assigning it a fresh ObjectID
// when one is not already set.
func (r *MongoRepository) Record(ctx context.Context, entry *WebhookAuditEntry) error {
	db, err := r.connection.DB(ctx)
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}

	_, err = db.Collection(r.collection).InsertOne(ctx, entry)

	return err
}
