package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationStore implements NotificationStore on a MongoDB collection.
// PruneSenders runs in a multi-document transaction, so the deployment must be
// a replica set.
type MongoNotificationStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoNotificationStore creates a new MongoNotificationStore
func NewMongoNotificationStore(db *mongo.Database) *MongoNotificationStore {
	return &MongoNotificationStore{
		client:     db.Client(),
		collection: db.Collection(notificationsCollection),
	}
}

// EnsureIndexes creates the indexes the group and listing queries rely on
func (s *MongoNotificationStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: fieldUserID, Value: 1}, {Key: fieldType, Value: 1}, {Key: fieldRelatedContentID, Value: 1}, {Key: fieldIsRead, Value: 1}, {Key: fieldCreatedAt, Value: -1}}},
		{Keys: bson.D{{Key: fieldUserID, Value: 1}, {Key: fieldType, Value: 1}, {Key: fieldAggregatedUserIDs, Value: 1}}},
		{Keys: bson.D{{Key: fieldUserID, Value: 1}, {Key: fieldCreatedAt, Value: -1}}},
	})
	return err
}

func keyFilter(key GroupKey) bson.M {
	filter := bson.M{
		fieldUserID: key.RecipientID,
		fieldType:   string(key.Kind),
	}
	if key.ContentID != "" {
		filter[fieldRelatedContentID] = key.ContentID
	}
	return filter
}

func (s *MongoNotificationStore) FindOpenGroup(ctx context.Context, key GroupKey, since time.Time) (*models.Notification, error) {
	filter := keyFilter(key)
	filter[fieldIsRead] = false
	filter[fieldCreatedAt] = bson.M{"$gte": since}

	opts := options.Find().SetSort(bson.D{{Key: fieldCreatedAt, Value: -1}}).SetLimit(1)
	list, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find open group: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (s *MongoNotificationStore) FindBySender(ctx context.Context, key GroupKey, senderID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	filter := keyFilter(key)
	filter[fieldAggregatedUserIDs] = senderID
	if unreadOnly {
		filter[fieldIsRead] = false
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	list, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find by sender: %w", err)
	}
	return list, nil
}

func (s *MongoNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	n.ID = uuid.NewString()
	if _, err := s.collection.InsertOne(ctx, n); err != nil {
		n.ID = ""
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *MongoNotificationStore) JoinGroup(ctx context.Context, id string, join GroupJoin) error {
	update := bson.M{
		"$set":      bson.M(joinFields(join)),
		"$addToSet": bson.M{fieldAggregatedUserIDs: join.SenderID},
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("join group %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("join group %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoNotificationStore) Reactivate(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{fieldIsRead: false, fieldCreatedAt: at}}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("reactivate %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("reactivate %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoNotificationStore) PruneSenders(ctx context.Context, prunes []SenderPrune) error {
	if len(prunes) == 0 {
		return nil
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("prune senders: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, p := range prunes {
			if p.Delete {
				if _, err := s.collection.DeleteOne(sc, bson.M{"_id": p.NotificationID}); err != nil {
					return nil, err
				}
				continue
			}
			update := bson.M{"$pull": bson.M{fieldAggregatedUserIDs: p.SenderID}}
			if _, err := s.collection.UpdateOne(sc, bson.M{"_id": p.NotificationID}, update); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("prune senders: %w", err)
	}
	return nil
}

func (s *MongoNotificationStore) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: fieldCreatedAt, Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	list, err := s.find(ctx, bson.M{fieldUserID: recipientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

func (s *MongoNotificationStore) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{fieldUserID: recipientID, fieldIsRead: false})
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *MongoNotificationStore) MarkRead(ctx context.Context, recipientID string, ids []string) (int, error) {
	filter := bson.M{fieldUserID: recipientID, fieldIsRead: false}
	if len(ids) > 0 {
		filter["_id"] = bson.M{"$in": ids}
	}
	res, err := s.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{fieldIsRead: true}})
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return int(res.ModifiedCount), nil
}

// find runs a query, skipping documents that fail to decode or validate
func (s *MongoNotificationStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Notification, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var list []models.Notification
	for cursor.Next(ctx) {
		var n models.Notification
		if err := cursor.Decode(&n); err != nil {
			skipMalformed(ctx, "mongo", fmt.Sprint(cursor.Current.Lookup("_id")), err)
			continue
		}
		if err := n.Validate(); err != nil {
			skipMalformed(ctx, "mongo", n.ID, err)
			continue
		}
		list = append(list, n)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
