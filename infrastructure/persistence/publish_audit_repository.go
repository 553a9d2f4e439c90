package persistence

import (
	"context"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	auditDatabase   = "social_publisher"
	auditCollection = "publish_audit"
)

// PublishAuditRepository appends publish outcomes to MongoDB. A nil client
// turns every write into a no-op so the pipeline runs without Mongo.
type PublishAuditRepository struct{ mongoDb *mongo.Client }

func NewPublishAuditRepository(mongoDb *mongo.Client) repository.IPublishAudit {
	return &PublishAuditRepository{mongoDb: mongoDb}
}

func (r *PublishAuditRepository) Record(ctx context.Context, a *model.PublishAudit) error {
	if r.mongoDb == nil {
		logger.GetLogger().Debug("MongoDB client is nil - skipping audit record")
		return nil
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	collection := r.mongoDb.Database(auditDatabase).Collection(auditCollection)
	if _, err := collection.InsertOne(ctx, a); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while inserting audit record")
		return err
	}
	return nil
}
