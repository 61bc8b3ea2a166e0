package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
)

type stubUsers struct {
	users map[string]*models.User
	err   error
}

func (s *stubUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubUsers) UpsertUser(context.Context, *models.User) error { return nil }

func TestUserProfileLookup(t *testing.T) {
	users := &stubUsers{users: map[string]*models.User{
		"bob":   {ID: "bob", DisplayName: "Bob", AvatarURL: "https://avatars/bob"},
		"blank": {ID: "blank"},
	}}

	tests := []struct {
		name   string
		users  *stubUsers
		userID string
		want   SenderProfile
	}{
		{"found", users, "bob", SenderProfile{DisplayName: "Bob", AvatarURL: "https://avatars/bob"}},
		{"missing", users, "ghost", SenderProfile{DisplayName: UnknownSenderName}},
		{"blank name", users, "blank", SenderProfile{DisplayName: UnknownSenderName}},
		{"store error", &stubUsers{err: errors.New("connection refused")}, "bob", SenderProfile{DisplayName: UnknownSenderName}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewUserProfileLookup(tt.users).Lookup(context.Background(), tt.userID)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
