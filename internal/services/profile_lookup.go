package services

import (
	"context"
	"errors"

	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/pkg/logging"
)

// UnknownSenderName is shown when the sender has no readable profile
const UnknownSenderName = "Unknown"

// SenderProfile is the sender display data copied onto notifications
type SenderProfile struct {
	DisplayName string
	AvatarURL   string
}

// ProfileLookup resolves sender display data. It never fails; missing or
// unreadable profiles resolve to a placeholder.
type ProfileLookup interface {
	Lookup(ctx context.Context, userID string) SenderProfile
}

// UserProfileLookup reads sender profiles from the user repository
type UserProfileLookup struct {
	users repositories.UserRepository
}

// NewUserProfileLookup creates a new UserProfileLookup
func NewUserProfileLookup(users repositories.UserRepository) *UserProfileLookup {
	return &UserProfileLookup{users: users}
}

func (l *UserProfileLookup) Lookup(ctx context.Context, userID string) SenderProfile {
	user, err := l.users.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("sender profile lookup failed")
		}
		return SenderProfile{DisplayName: UnknownSenderName}
	}

	profile := SenderProfile{DisplayName: user.DisplayName, AvatarURL: user.AvatarURL}
	if profile.DisplayName == "" {
		profile.DisplayName = UnknownSenderName
	}
	return profile
}
