// Package ratings maintains Elo-style ratings and win/loss tallies over the
// archive repository, with the Redis cache in front of reads.
package ratings

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"crossline/internal/archive"
	"crossline/internal/cache"
	"crossline/internal/domain"
)

const (
	DefaultRating = 1200
	kFactor       = 24
)

type Service struct {
	repo  archive.Repository
	cache *cache.Cache
	log   *zap.Logger
}

func NewService(repo archive.Repository, c *cache.Cache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, log: log}
}

// Profile returns the stored profile, cache first. Unknown names yield nil.
func (s *Service) Profile(ctx context.Context, name string) (*domain.PlayerProfile, error) {
	if p, err := s.cache.LoadProfile(ctx, name); err == nil && p != nil {
		return p, nil
	}
	p, err := s.repo.Profile(ctx, name)
	if err != nil {
		return nil, err
	}
	if p != nil {
		s.cacheProfile(ctx, p)
	}
	return p, nil
}

// Rating resolves a player's current rating, falling back to the default for
// unknown names or a failing repository.
func (s *Service) Rating(ctx context.Context, name string) int {
	p, err := s.Profile(ctx, name)
	if err != nil {
		s.log.Warn("rating_lookup_failed", zap.String("name", name), zap.Error(err))
		return DefaultRating
	}
	if p == nil {
		return DefaultRating
	}
	return p.Rating
}

// Result is one finished match as seen by the rating ledger.
type Result struct {
	Player1 string
	Player2 string
	Winner  int8 // 0 draw, 1 or 2
	EndedAt time.Time
}

// ApplyResult folds one finished match into both players' profiles and
// returns the applied rating deltas. Both sides are scored against the
// opponent's pre-match rating.
func (s *Service) ApplyResult(ctx context.Context, res Result) (d1, d2 int, err error) {
	p1, err := s.fetchOrInit(ctx, res.Player1, res.EndedAt)
	if err != nil {
		return 0, 0, err
	}
	p2, err := s.fetchOrInit(ctx, res.Player2, res.EndedAt)
	if err != nil {
		return 0, 0, err
	}

	r1, r2 := p1.Rating, p2.Rating
	score := scoreFor(1, res.Winner)
	d1 = updateProfile(p1, r2, score, res.EndedAt)
	d2 = updateProfile(p2, r1, 1-score, res.EndedAt)

	if err := s.repo.UpsertProfile(ctx, p1); err != nil {
		return 0, 0, err
	}
	if err := s.repo.UpsertProfile(ctx, p2); err != nil {
		return d1, 0, err
	}
	s.cacheProfile(ctx, p1)
	s.cacheProfile(ctx, p2)
	s.log.Info("rating_applied",
		zap.String("player1", res.Player1),
		zap.String("player2", res.Player2),
		zap.Int8("winner", res.Winner),
		zap.Int("delta1", d1),
		zap.Int("delta2", d2))
	return d1, d2, nil
}

func (s *Service) fetchOrInit(ctx context.Context, name string, at time.Time) (*domain.PlayerProfile, error) {
	p, err := s.repo.Profile(ctx, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.PlayerProfile{Name: name, Rating: DefaultRating, CreatedAt: at}
	}
	return p, nil
}

func (s *Service) cacheProfile(ctx context.Context, p *domain.PlayerProfile) {
	if err := s.cache.SaveProfile(ctx, p); err != nil {
		s.log.Warn("profile_cache_failed", zap.String("name", p.Name), zap.Error(err))
	}
}

func scoreFor(player, winner int8) float64 {
	switch winner {
	case player:
		return 1
	case 0:
		return 0.5
	default:
		return 0
	}
}

// updateProfile applies one scored result and returns the rating delta.
func updateProfile(p *domain.PlayerProfile, oppRating int, score float64, endedAt time.Time) int {
	prev := p.Rating

	p.GamesPlayed++
	p.LastPlayedAt = endedAt
	p.UpdatedAt = endedAt

	resultType := "draw"
	switch score {
	case 1:
		p.Wins++
		resultType = "win"
	case 0:
		p.Losses++
		resultType = "loss"
	default:
		p.Draws++
	}

	if p.StreakType == resultType {
		p.Streak++
	} else {
		p.Streak = 1
		p.StreakType = resultType
	}

	expected := 1 / (1 + math.Pow(10, float64(oppRating-p.Rating)/400))
	p.Rating = int(math.Round(float64(p.Rating) + kFactor*(score-expected)))
	return p.Rating - prev
}
