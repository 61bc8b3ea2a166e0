package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryNotificationStore is a process-local NotificationStore used for local
// development and as the store double in tests. A single mutex makes every
// operation, including PruneSenders, atomic.
type MemoryNotificationStore struct {
	mu      sync.RWMutex
	records map[string]models.Notification
	writes  int
}

// NewMemoryNotificationStore creates an empty MemoryNotificationStore
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{records: make(map[string]models.Notification)}
}

// Writes returns the number of mutating calls that changed the store
func (s *MemoryNotificationStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Get returns a copy of one record
func (s *MemoryNotificationStore) Get(id string) (models.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.records[id]
	return clone(n), ok
}

// All returns copies of every record, newest first
func (s *MemoryNotificationStore) All() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(models.Notification) bool { return true })
}

// Put stores n as-is without counting a write; it assigns an id when n has none.
func (s *MemoryNotificationStore) Put(n models.Notification) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	s.records[n.ID] = clone(n)
	return n.ID
}

func (s *MemoryNotificationStore) FindOpenGroup(ctx context.Context, key GroupKey, since time.Time) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.sorted(func(n models.Notification) bool {
		return matchesKey(n, key) && !n.IsRead && !n.CreatedAt.Before(since)
	})
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (s *MemoryNotificationStore) FindBySender(ctx context.Context, key GroupKey, senderID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.sorted(func(n models.Notification) bool {
		return matchesKey(n, key) && n.HasSender(senderID) && (!unreadOnly || !n.IsRead)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = uuid.NewString()
	s.records[n.ID] = clone(*n)
	s.writes++
	return nil
}

func (s *MemoryNotificationStore) JoinGroup(ctx context.Context, id string, join GroupJoin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.records[id]
	if !ok {
		return fmt.Errorf("join group %s: %w", id, ErrNotFound)
	}
	n.SenderID = join.SenderID
	n.SenderName = join.SenderName
	n.SenderProfileURL = join.SenderProfileURL
	n.RelatedContentID = join.RelatedContentID
	if join.Display != nil {
		join.Display.Apply(&n)
	}
	if !n.HasSender(join.SenderID) {
		n.AggregatedUserIDs = append(n.AggregatedUserIDs, join.SenderID)
	}
	n.CreatedAt = join.At
	s.records[id] = n
	s.writes++
	return nil
}

func (s *MemoryNotificationStore) Reactivate(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.records[id]
	if !ok {
		return fmt.Errorf("reactivate %s: %w", id, ErrNotFound)
	}
	n.IsRead = false
	n.CreatedAt = at
	s.records[id] = n
	s.writes++
	return nil
}

func (s *MemoryNotificationStore) PruneSenders(ctx context.Context, prunes []SenderPrune) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching anything.
	for _, p := range prunes {
		if _, ok := s.records[p.NotificationID]; !ok && !p.Delete {
			return fmt.Errorf("prune senders: %s: %w", p.NotificationID, ErrNotFound)
		}
	}
	for _, p := range prunes {
		if p.Delete {
			delete(s.records, p.NotificationID)
			continue
		}
		n := s.records[p.NotificationID]
		kept := n.AggregatedUserIDs[:0:0]
		for _, id := range n.AggregatedUserIDs {
			if id != p.SenderID {
				kept = append(kept, id)
			}
		}
		n.AggregatedUserIDs = kept
		s.records[p.NotificationID] = n
	}
	if len(prunes) > 0 {
		s.writes++
	}
	return nil
}

func (s *MemoryNotificationStore) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.sorted(func(n models.Notification) bool { return n.UserID == recipientID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryNotificationStore) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.records {
		if n.UserID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) MarkRead(ctx context.Context, recipientID string, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := idSet(ids)
	marked := 0
	for id, n := range s.records {
		if n.UserID != recipientID || n.IsRead {
			continue
		}
		if _, ok := wanted[id]; len(wanted) > 0 && !ok {
			continue
		}
		n.IsRead = true
		s.records[id] = n
		marked++
	}
	if marked > 0 {
		s.writes++
	}
	return marked, nil
}

// sorted returns matching records newest first; callers hold s.mu.
func (s *MemoryNotificationStore) sorted(match func(models.Notification) bool) []models.Notification {
	var list []models.Notification
	for _, n := range s.records {
		if match(n) {
			list = append(list, clone(n))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func matchesKey(n models.Notification, key GroupKey) bool {
	if n.UserID != key.RecipientID || n.Type != key.Kind {
		return false
	}
	return key.ContentID == "" || n.RelatedContentID == key.ContentID
}

func clone(n models.Notification) models.Notification {
	if n.AggregatedUserIDs != nil {
		n.AggregatedUserIDs = append([]string(nil), n.AggregatedUserIDs...)
	}
	return n
}
