// Package archive persists finished matches and player profiles. A postgres
// repository backs production; an in-process one covers runs without a
// database.
package archive

import (
	"context"
	"errors"

	"crossline/internal/domain"
)

var ErrDuplicateMatch = errors.New("match already recorded")

type Repository interface {
	SaveMatch(ctx context.Context, rec *domain.MatchRecord) (string, error)
	RecentMatches(ctx context.Context, player string, limit int) ([]*domain.MatchRecord, error)
	Profile(ctx context.Context, name string) (*domain.PlayerProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error
}
