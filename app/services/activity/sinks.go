package activity

import (
	"context"
	"time"

	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const insertActivityQuery = `
	INSERT INTO activity_logs (id, branch_id, user_id, user_name, role, module, action, entity_id, description, metadata, ip_address, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// PostgresSink stores entries in the activity_logs table.
type PostgresSink struct {
	db *sqlx.DB
}

func NewPostgresSink(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Write(ctx context.Context, e *models.ActivityLog) error {
	_, err := s.db.ExecContext(ctx, insertActivityQuery,
		e.ID, e.BranchID, e.UserID, e.UserName, e.Role, e.Module, e.Action,
		e.EntityID, e.Description, e.Metadata, e.IPAddress, e.CreatedAt)
	return errors.Wrap(err, "insert activity log")
}

// Purge deletes entries older than retentionDays. Zero keeps everything.
func Purge(ctx context.Context, db *sqlx.DB, retentionDays int, now time.Time) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	res, err := db.ExecContext(ctx, `DELETE FROM activity_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge activity logs")
	}
	return res.RowsAffected()
}

// MongoSink mirrors entries into a MongoDB collection.
type MongoSink struct {
	coll *mongo.Collection
}

func NewMongoSink(coll *mongo.Collection) *MongoSink {
	return &MongoSink{coll: coll}
}

func (s *MongoSink) Write(ctx context.Context, e *models.ActivityLog) error {
	_, err := s.coll.InsertOne(ctx, e)
	return errors.Wrap(err, "mirror activity log")
}

// PurgeBefore removes mirrored entries older than cutoff.
func (s *MongoSink) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, errors.Wrap(err, "purge mirrored activity logs")
	}
	return res.DeletedCount, nil
}

// ConnectMongo opens the mirror collection and ensures its indexes.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "ping mongo")
	}

	coll := client.Database(database).Collection("activity_logs")
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "branch_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "module", Value: 1}, {Key: "action", Value: 1}}},
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to create activity log indexes")
	}

	log.Info().Str("database", database).Msg("activity log mirror connected")
	return client, NewMongoSink(coll), nil
}
