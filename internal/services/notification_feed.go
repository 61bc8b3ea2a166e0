package services

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-recipe/backend/internal/metrics"
	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/pkg/logging"
)

// Feed listing limits
const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 200
)

// FeedItem is a notification together with the screen it opens
type FeedItem struct {
	models.Notification
	Route models.Route `json:"route"`
}

// Feed is a recipient's notifications split by read state, newest first
type Feed struct {
	Unread []FeedItem `json:"unread"`
	Read   []FeedItem `json:"read"`
}

// NotificationFeed is the read side of the notification engine. MarkRead is
// the only write it performs.
type NotificationFeed struct {
	store repositories.NotificationStore
}

// NewNotificationFeed creates a new NotificationFeed
func NewNotificationFeed(store repositories.NotificationStore) *NotificationFeed {
	return &NotificationFeed{store: store}
}

// List returns up to limit of the recipient's most recent notifications.
// Records that cannot be routed are logged and dropped.
func (f *NotificationFeed) List(ctx context.Context, recipientID string, limit int) (*Feed, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	records, err := f.store.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}

	feed := &Feed{Unread: []FeedItem{}, Read: []FeedItem{}}
	for i := range records {
		n := &records[i]
		item, err := feedItem(n, recipientID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("record_id", n.ID).Msg("skipping malformed notification record")
			metrics.RecordMalformed("feed")
			continue
		}
		if n.IsRead {
			feed.Read = append(feed.Read, item)
		} else {
			feed.Unread = append(feed.Unread, item)
		}
	}
	return feed, nil
}

// MarkRead marks the given records read, or every unread record when ids is
// empty. Records of other recipients are ignored.
func (f *NotificationFeed) MarkRead(ctx context.Context, recipientID string, ids []string) (int, error) {
	marked, err := f.store.MarkRead(ctx, recipientID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read for %s: %w", recipientID, err)
	}
	return marked, nil
}

// UnreadCount returns how many unread records the recipient has
func (f *NotificationFeed) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	count, err := f.store.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications for %s: %w", recipientID, err)
	}
	return count, nil
}

func feedItem(n *models.Notification, recipientID string) (FeedItem, error) {
	if err := n.Validate(); err != nil {
		return FeedItem{}, err
	}
	if n.UserID != recipientID {
		return FeedItem{}, fmt.Errorf("notification %s belongs to another recipient", n.ID)
	}
	route, err := models.RouteOf(n)
	if err != nil {
		return FeedItem{}, err
	}
	return FeedItem{Notification: *n, Route: route}, nil
}
