package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-recipe/backend/internal/metrics"
	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/pkg/logging"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("not found")

// Persisted notification field names
const (
	fieldUserID            = "userId"
	fieldType              = "type"
	fieldSenderID          = "senderId"
	fieldSenderName        = "senderName"
	fieldSenderProfileURL  = "senderProfileUrl"
	fieldAggregatedUserIDs = "aggregatedUserIds"
	fieldRelatedContentID  = "relatedContentId"
	fieldCreatedAt         = "createdAt"
	fieldIsRead            = "isRead"
)

// GroupKey identifies a notification group. An empty ContentID matches any
// related content, which is how follow notifications group.
type GroupKey struct {
	RecipientID string
	Kind        models.NotificationKind
	ContentID   string
}

// GroupJoin holds the fields written when a sender joins an open group
type GroupJoin struct {
	SenderID         string
	SenderName       string
	SenderProfileURL string
	RelatedContentID string
	Display          models.Display
	At               time.Time
}

// SenderPrune removes SenderID from a record, or deletes the record when Delete is set
type SenderPrune struct {
	NotificationID string
	SenderID       string
	Delete         bool
}

// NotificationStore is the document store holding notification records.
// Implementations must apply PruneSenders atomically.
type NotificationStore interface {
	// FindOpenGroup returns the newest unread record of the group created at or after since.
	FindOpenGroup(ctx context.Context, key GroupKey, since time.Time) (*models.Notification, error)
	// FindBySender returns records of the group whose aggregation set contains senderID.
	// A limit of 0 returns every match.
	FindBySender(ctx context.Context, key GroupKey, senderID string, unreadOnly bool, limit int) ([]models.Notification, error)
	Create(ctx context.Context, n *models.Notification) error
	JoinGroup(ctx context.Context, id string, join GroupJoin) error
	Reactivate(ctx context.Context, id string, at time.Time) error
	PruneSenders(ctx context.Context, prunes []SenderPrune) error

	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// MarkRead flips isRead on the recipient's unread records in ids, or on all
	// of them when ids is empty, and returns how many changed.
	MarkRead(ctx context.Context, recipientID string, ids []string) (int, error)
}

// displayFields returns every denormalized display field for d, with the
// fields owned by other variants blanked.
func displayFields(d models.Display) map[string]interface{} {
	var n models.Notification
	if d != nil {
		d.Apply(&n)
	}
	return map[string]interface{}{
		"recipeTitle":        n.RecipeTitle,
		"recipeThumbnailUrl": n.RecipeThumbnailURL,
		"titleName":          n.TitleName,
		"tipTitle":           n.TipTitle,
		"tipFirstImageUrl":   n.TipFirstImageURL,
		"commentContent":     n.CommentContent,
	}
}

func joinFields(join GroupJoin) map[string]interface{} {
	fields := displayFields(join.Display)
	fields[fieldSenderID] = join.SenderID
	fields[fieldSenderName] = join.SenderName
	fields[fieldSenderProfileURL] = join.SenderProfileURL
	fields[fieldRelatedContentID] = join.RelatedContentID
	fields[fieldCreatedAt] = join.At
	return fields
}

func skipMalformed(ctx context.Context, backend, id string, err error) {
	logging.Ctx(ctx).Warn().Err(err).
		Str("backend", backend).
		Str("record_id", id).
		Msg("skipping malformed notification record")
	metrics.RecordMalformed(backend)
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
