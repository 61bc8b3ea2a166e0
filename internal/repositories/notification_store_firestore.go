package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/nano-recipe/backend/internal/models"
	"google.golang.org/api/iterator"
)

const notificationsCollection = "notifications"

// FirestoreNotificationStore implements NotificationStore on Cloud Firestore,
// sharing the collection layout used by the mobile client.
//
// Required composite indexes: (userId, type, relatedContentId, isRead, createdAt desc),
// (userId, type, isRead, createdAt desc), (userId, createdAt desc).
type FirestoreNotificationStore struct {
	client *firestore.Client
}

// NewFirestoreNotificationStore creates a new FirestoreNotificationStore
func NewFirestoreNotificationStore(client *firestore.Client) *FirestoreNotificationStore {
	return &FirestoreNotificationStore{client: client}
}

func (s *FirestoreNotificationStore) collection() *firestore.CollectionRef {
	return s.client.Collection(notificationsCollection)
}

func (s *FirestoreNotificationStore) keyQuery(key GroupKey) firestore.Query {
	q := s.collection().
		Where(fieldUserID, "==", key.RecipientID).
		Where(fieldType, "==", string(key.Kind))
	if key.ContentID != "" {
		q = q.Where(fieldRelatedContentID, "==", key.ContentID)
	}
	return q
}

func (s *FirestoreNotificationStore) FindOpenGroup(ctx context.Context, key GroupKey, since time.Time) (*models.Notification, error) {
	q := s.keyQuery(key).
		Where(fieldIsRead, "==", false).
		Where(fieldCreatedAt, ">=", since).
		OrderBy(fieldCreatedAt, firestore.Desc).
		Limit(1)
	list, err := collectFirestore(ctx, q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("find open group: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (s *FirestoreNotificationStore) FindBySender(ctx context.Context, key GroupKey, senderID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := s.keyQuery(key).Where(fieldAggregatedUserIDs, "array-contains", senderID)
	if unreadOnly {
		q = q.Where(fieldIsRead, "==", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	list, err := collectFirestore(ctx, q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("find by sender: %w", err)
	}
	return list, nil
}

func (s *FirestoreNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	ref := s.collection().NewDoc()
	if _, err := ref.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	n.ID = ref.ID
	return nil
}

func (s *FirestoreNotificationStore) JoinGroup(ctx context.Context, id string, join GroupJoin) error {
	fields := joinFields(join)
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: fieldAggregatedUserIDs, Value: firestore.ArrayUnion(join.SenderID)})

	if _, err := s.collection().Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("join group %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreNotificationStore) Reactivate(ctx context.Context, id string, at time.Time) error {
	_, err := s.collection().Doc(id).Update(ctx, []firestore.Update{
		{Path: fieldIsRead, Value: false},
		{Path: fieldCreatedAt, Value: at},
	})
	if err != nil {
		return fmt.Errorf("reactivate %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreNotificationStore) PruneSenders(ctx context.Context, prunes []SenderPrune) error {
	if len(prunes) == 0 {
		return nil
	}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, p := range prunes {
			ref := s.collection().Doc(p.NotificationID)
			if p.Delete {
				if err := tx.Delete(ref); err != nil {
					return err
				}
				continue
			}
			if err := tx.Update(ref, []firestore.Update{
				{Path: fieldAggregatedUserIDs, Value: firestore.ArrayRemove(p.SenderID)},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune senders: %w", err)
	}
	return nil
}

func (s *FirestoreNotificationStore) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	q := s.collection().
		Where(fieldUserID, "==", recipientID).
		OrderBy(fieldCreatedAt, firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	list, err := collectFirestore(ctx, q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

func (s *FirestoreNotificationStore) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	docs, err := s.unreadQuery(recipientID).Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return int64(len(docs)), nil
}

func (s *FirestoreNotificationStore) MarkRead(ctx context.Context, recipientID string, ids []string) (int, error) {
	wanted := idSet(ids)
	var marked int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		marked = 0
		docs, err := tx.Documents(s.unreadQuery(recipientID)).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if _, ok := wanted[doc.Ref.ID]; len(wanted) > 0 && !ok {
				continue
			}
			if err := tx.Update(doc.Ref, []firestore.Update{{Path: fieldIsRead, Value: true}}); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return marked, nil
}

func (s *FirestoreNotificationStore) unreadQuery(recipientID string) firestore.Query {
	return s.collection().
		Where(fieldUserID, "==", recipientID).
		Where(fieldIsRead, "==", false)
}

// collectFirestore drains iter, skipping documents that fail to decode or validate
func collectFirestore(ctx context.Context, iter *firestore.DocumentIterator) ([]models.Notification, error) {
	defer iter.Stop()

	var list []models.Notification
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			skipMalformed(ctx, "firestore", doc.Ref.ID, err)
			continue
		}
		n.ID = doc.Ref.ID
		if err := n.Validate(); err != nil {
			skipMalformed(ctx, "firestore", doc.Ref.ID, err)
			continue
		}
		list = append(list, n)
	}
	return list, nil
}
