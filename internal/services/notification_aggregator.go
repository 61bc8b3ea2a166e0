// Package services holds the notification engine: the aggregator that turns
// social events into grouped notification records, and the feed that serves
// them back to the recipient.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-recipe/backend/internal/metrics"
	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/pkg/logging"
)

// DefaultGroupWindow is how long an unread record stays open for new senders
const DefaultGroupWindow = time.Hour

// Aggregator operation names, used in logs and metrics
const (
	OpAddEngagement    = "add_engagement"
	OpRemoveEngagement = "remove_engagement"
	OpAddFollow        = "add_follow"
	OpRemoveFollow     = "remove_follow"
	OpAchievement      = "achievement"
)

// NotificationAggregator is the write side of the notification engine. Every
// method is best-effort: failures are logged and counted, never returned.
type NotificationAggregator interface {
	AddEngagement(ctx context.Context, recipientID, senderID string, kind models.NotificationKind, contentID string, display models.Display)
	RemoveEngagement(ctx context.Context, recipientID, senderID string, kind models.NotificationKind, contentID string)
	AddFollow(ctx context.Context, recipientID, senderID string)
	RemoveFollow(ctx context.Context, recipientID, senderID string)
	CreateAchievementNotification(ctx context.Context, userID, awardName string)
}

// Aggregator groups likes, reviews, tip interactions and follows into
// time-windowed notification records held in a NotificationStore.
//
// The open-group lookup and the write that follows are separate round trips,
// so two concurrent adds for the same group can both create a record.
type Aggregator struct {
	store    repositories.NotificationStore
	profiles ProfileLookup
	window   time.Duration
	now      func() time.Time
}

// AggregatorOption configures an Aggregator
type AggregatorOption func(*Aggregator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithGroupWindow overrides DefaultGroupWindow
func WithGroupWindow(window time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if window > 0 {
			a.window = window
		}
	}
}

// NewAggregator creates a new Aggregator
func NewAggregator(store repositories.NotificationStore, profiles ProfileLookup, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		store:    store,
		profiles: profiles,
		window:   DefaultGroupWindow,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// event is the intent of one aggregator call, kept for logging
type event struct {
	op          string
	recipientID string
	senderID    string
	kind        models.NotificationKind
	contentID   string
}

// errSkip marks calls that are dropped without touching the store
var errSkip = errors.New("skipped")

// AddEngagement records that senderID liked, reviewed or commented on
// recipientID's content. It joins the open group for the content, else
// reactivates the sender's own earlier record, else creates a new one.
func (a *Aggregator) AddEngagement(ctx context.Context, recipientID, senderID string, kind models.NotificationKind, contentID string, display models.Display) {
	ev := event{op: OpAddEngagement, recipientID: recipientID, senderID: senderID, kind: kind, contentID: contentID}
	a.run(ctx, ev, func(ctx context.Context) (string, error) {
		if !kind.IsEngagement() {
			return "", fmt.Errorf("kind %q is not an engagement", kind)
		}
		if err := checkPair(recipientID, senderID); err != nil {
			return "", err
		}
		if contentID == "" {
			return "", fmt.Errorf("%w: empty content id", errSkip)
		}
		if err := models.CheckDisplay(kind, display); err != nil {
			return "", err
		}
		key := repositories.GroupKey{RecipientID: recipientID, Kind: kind, ContentID: contentID}
		return a.add(ctx, key, senderID, contentID, display)
	})
}

// RemoveEngagement undoes AddEngagement on every unread record of the group
// that still lists senderID. Read records are left alone.
func (a *Aggregator) RemoveEngagement(ctx context.Context, recipientID, senderID string, kind models.NotificationKind, contentID string) {
	ev := event{op: OpRemoveEngagement, recipientID: recipientID, senderID: senderID, kind: kind, contentID: contentID}
	a.run(ctx, ev, func(ctx context.Context) (string, error) {
		if !kind.IsEngagement() {
			return "", fmt.Errorf("kind %q is not an engagement", kind)
		}
		if err := checkPair(recipientID, senderID); err != nil {
			return "", err
		}
		if contentID == "" {
			return "", fmt.Errorf("%w: empty content id", errSkip)
		}
		key := repositories.GroupKey{RecipientID: recipientID, Kind: kind, ContentID: contentID}
		return a.remove(ctx, key, senderID)
	})
}

// AddFollow records that senderID followed recipientID. Follows group per
// recipient; relatedContentId points at the most recent follower.
func (a *Aggregator) AddFollow(ctx context.Context, recipientID, senderID string) {
	ev := event{op: OpAddFollow, recipientID: recipientID, senderID: senderID, kind: models.KindFollow, contentID: senderID}
	a.run(ctx, ev, func(ctx context.Context) (string, error) {
		if err := checkPair(recipientID, senderID); err != nil {
			return "", err
		}
		return a.add(ctx, followKey(recipientID), senderID, senderID, models.FollowDisplay{})
	})
}

// RemoveFollow undoes AddFollow
func (a *Aggregator) RemoveFollow(ctx context.Context, recipientID, senderID string) {
	ev := event{op: OpRemoveFollow, recipientID: recipientID, senderID: senderID, kind: models.KindFollow, contentID: senderID}
	a.run(ctx, ev, func(ctx context.Context) (string, error) {
		if err := checkPair(recipientID, senderID); err != nil {
			return "", err
		}
		return a.remove(ctx, followKey(recipientID), senderID)
	})
}

// CreateAchievementNotification always inserts a fresh TITLE_AWARD record.
// Call it only after the title grant itself has been stored.
func (a *Aggregator) CreateAchievementNotification(ctx context.Context, userID, awardName string) {
	ev := event{op: OpAchievement, recipientID: userID, kind: models.KindTitleAward}
	a.run(ctx, ev, func(ctx context.Context) (string, error) {
		if userID == "" || awardName == "" {
			return "", fmt.Errorf("%w: empty user or title", errSkip)
		}
		n := &models.Notification{
			UserID:            userID,
			Type:              models.KindTitleAward,
			AggregatedUserIDs: []string{},
			CreatedAt:         a.now(),
		}
		models.TitleDisplay{TitleName: awardName}.Apply(n)
		if err := a.store.Create(ctx, n); err != nil {
			return "", err
		}
		return metrics.OutcomeCreated, nil
	})
}

func (a *Aggregator) add(ctx context.Context, key repositories.GroupKey, senderID, contentID string, display models.Display) (string, error) {
	now := a.now()

	open, err := a.store.FindOpenGroup(ctx, key, now.Add(-a.window))
	switch {
	case err == nil:
		profile := a.profiles.Lookup(ctx, senderID)
		join := repositories.GroupJoin{
			SenderID:         senderID,
			SenderName:       profile.DisplayName,
			SenderProfileURL: profile.AvatarURL,
			RelatedContentID: contentID,
			Display:          display,
			At:               now,
		}
		if err := a.store.JoinGroup(ctx, open.ID, join); err != nil {
			return "", err
		}
		return metrics.OutcomeJoined, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return "", err
	}

	prior, err := a.store.FindBySender(ctx, key, senderID, false, 1)
	if err != nil {
		return "", err
	}
	if len(prior) > 0 {
		// Other members of the reopened record are not re-checked.
		if err := a.store.Reactivate(ctx, prior[0].ID, now); err != nil {
			return "", err
		}
		return metrics.OutcomeReactivated, nil
	}

	profile := a.profiles.Lookup(ctx, senderID)
	n := &models.Notification{
		UserID:            key.RecipientID,
		Type:              key.Kind,
		SenderID:          senderID,
		SenderName:        profile.DisplayName,
		SenderProfileURL:  profile.AvatarURL,
		AggregatedUserIDs: []string{senderID},
		RelatedContentID:  contentID,
		CreatedAt:         now,
	}
	display.Apply(n)
	if err := a.store.Create(ctx, n); err != nil {
		return "", err
	}
	return metrics.OutcomeCreated, nil
}

func (a *Aggregator) remove(ctx context.Context, key repositories.GroupKey, senderID string) (string, error) {
	records, err := a.store.FindBySender(ctx, key, senderID, true, 0)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return metrics.OutcomeSkipped, nil
	}

	outcome := metrics.OutcomeDeleted
	prunes := make([]repositories.SenderPrune, 0, len(records))
	for _, n := range records {
		p := repositories.SenderPrune{NotificationID: n.ID, SenderID: senderID, Delete: len(n.AggregatedUserIDs) <= 1}
		if !p.Delete {
			outcome = metrics.OutcomePruned
		}
		prunes = append(prunes, p)
	}
	if err := a.store.PruneSenders(ctx, prunes); err != nil {
		return "", err
	}
	return outcome, nil
}

// run is the best-effort boundary around every operation
func (a *Aggregator) run(ctx context.Context, ev event, fn func(ctx context.Context) (string, error)) {
	defer func() {
		if r := recover(); r != nil {
			a.fail(ctx, ev, fmt.Errorf("panic: %v", r))
		}
	}()

	outcome, err := fn(ctx)
	switch {
	case errors.Is(err, errSkip):
		logging.Ctx(ctx).Debug().Err(err).
			Str("op", ev.op).
			Str("recipient_id", ev.recipientID).
			Str("sender_id", ev.senderID).
			Msg("notification skipped")
		metrics.RecordDecision(ev.op, metrics.OutcomeSkipped)
	case err != nil:
		a.fail(ctx, ev, err)
	default:
		metrics.RecordDecision(ev.op, outcome)
	}
}

func (a *Aggregator) fail(ctx context.Context, ev event, err error) {
	logging.Ctx(ctx).Error().Err(err).
		Str("op", ev.op).
		Str("recipient_id", ev.recipientID).
		Str("sender_id", ev.senderID).
		Str("kind", string(ev.kind)).
		Str("content_id", ev.contentID).
		Msg("notification update failed")
	metrics.RecordDecision(ev.op, metrics.OutcomeFailed)
}

func checkPair(recipientID, senderID string) error {
	if recipientID == "" || senderID == "" {
		return fmt.Errorf("%w: empty recipient or sender", errSkip)
	}
	if recipientID == senderID {
		return fmt.Errorf("%w: self action", errSkip)
	}
	return nil
}

func followKey(recipientID string) repositories.GroupKey {
	return repositories.GroupKey{RecipientID: recipientID, Kind: models.KindFollow}
}
