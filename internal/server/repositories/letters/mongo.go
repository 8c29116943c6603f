package letters

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CollectionName is the MongoDB collection holding letter documents.
const CollectionName = "letters"

type letterDoc struct {
	ID              string            `bson:"_id"`
	TemplateID      string            `bson:"template_id"`
	SerialNumber    string            `bson:"serial_number"`
	IssueDate       string            `bson:"issue_date"`
	Body            string            `bson:"body"`
	VerificationURL string            `bson:"verification_url"`
	SignatureRef    string            `bson:"signature_ref"`
	Fields          map[string]string `bson:"fields,omitempty"`
}

func (d letterDoc) content() *models.LetterContent {
	return &models.LetterContent{
		ID:              d.ID,
		TemplateID:      d.TemplateID,
		SerialNumber:    d.SerialNumber,
		IssueDate:       d.IssueDate,
		Body:            d.Body,
		VerificationURL: d.VerificationURL,
		SignatureRef:    d.SignatureRef,
		Fields:          d.Fields,
	}
}

// MongoRepository reads letters from a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) GetLetterContent(ctx context.Context, letterID string) (*models.LetterContent, error) {
	var doc letterDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": letterID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("letter %s: %w", letterID, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return doc.content(), nil
}
