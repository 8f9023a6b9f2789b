package ratings

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"crossline/internal/archive"
	"crossline/internal/cache"
	"crossline/internal/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(archive.NewMemory(), nil, zap.NewNop())
}

func TestDefaultRating(t *testing.T) {
	s := newTestService(t)
	if r := s.Rating(context.Background(), "ghost"); r != DefaultRating {
		t.Fatalf("unknown player rating = %d", r)
	}
}

func TestApplyResultWinLoss(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	d1, d2, err := s.ApplyResult(ctx, Result{Player1: "Ana", Player2: "Bo", Winner: 1, EndedAt: time.Now()})
	if err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	// equal ratings: winner gains what the loser drops
	if d1 != 12 || d2 != -12 {
		t.Fatalf("deltas = %d, %d", d1, d2)
	}

	ana, _ := s.Profile(ctx, "Ana")
	bo, _ := s.Profile(ctx, "Bo")
	if ana.Rating != 1212 || ana.Wins != 1 || ana.GamesPlayed != 1 {
		t.Fatalf("winner profile = %+v", ana)
	}
	if bo.Rating != 1188 || bo.Losses != 1 || bo.GamesPlayed != 1 {
		t.Fatalf("loser profile = %+v", bo)
	}
	if ana.Streak != 1 || ana.StreakType != "win" || bo.StreakType != "loss" {
		t.Fatalf("streaks = %+v / %+v", ana, bo)
	}
}

func TestApplyResultDraw(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	d1, d2, err := s.ApplyResult(ctx, Result{Player1: "Ana", Player2: "Bo", Winner: 0, EndedAt: time.Now()})
	if err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	if d1 != 0 || d2 != 0 {
		t.Fatalf("draw at equal ratings moved points: %d, %d", d1, d2)
	}
	ana, _ := s.Profile(ctx, "Ana")
	if ana.Draws != 1 || ana.StreakType != "draw" {
		t.Fatalf("draw profile = %+v", ana)
	}
}

func TestStreakAccumulatesAndResets(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := s.ApplyResult(ctx, Result{Player1: "Ana", Player2: "Bo", Winner: 1, EndedAt: time.Now()}); err != nil {
			t.Fatalf("ApplyResult #%d: %v", i, err)
		}
	}
	ana, _ := s.Profile(ctx, "Ana")
	bo, _ := s.Profile(ctx, "Bo")
	if ana.Streak != 2 || ana.StreakType != "win" || bo.Streak != 2 || bo.StreakType != "loss" {
		t.Fatalf("streaks after two wins = %+v / %+v", ana, bo)
	}

	if _, _, err := s.ApplyResult(ctx, Result{Player1: "Ana", Player2: "Bo", Winner: 2, EndedAt: time.Now()}); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	ana, _ = s.Profile(ctx, "Ana")
	if ana.Streak != 1 || ana.StreakType != "loss" {
		t.Fatalf("streak after reversal = %+v", ana)
	}
}

func TestFavoriteGainsLessThanUnderdog(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// build a gap first
	for i := 0; i < 6; i++ {
		if _, _, err := s.ApplyResult(ctx, Result{Player1: "Ana", Player2: "Bo", Winner: 1, EndedAt: time.Now()}); err != nil {
			t.Fatalf("ApplyResult #%d: %v", i, err)
		}
	}
	ana, _ := s.Profile(ctx, "Ana")
	bo, _ := s.Profile(ctx, "Bo")
	if ana.Rating <= bo.Rating {
		t.Fatalf("no gap built: %d vs %d", ana.Rating, bo.Rating)
	}

	d1, _, err := s.ApplyResult(ctx, Result{Player1: "Ana", Player2: "Bo", Winner: 1, EndedAt: time.Now()})
	if err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	if d1 >= 12 {
		t.Fatalf("favorite gained %d, want less than the even-match 12", d1)
	}

	d1, _, err = s.ApplyResult(ctx, Result{Player1: "Ana", Player2: "Bo", Winner: 2, EndedAt: time.Now()})
	if err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	if d1 >= -12 {
		t.Fatalf("favorite lost only %d to the underdog", d1)
	}
}

func TestRatingReadsThroughCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	c, err := cache.New(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	defer c.Close()

	s := NewService(archive.NewMemory(), c, zap.NewNop())
	ctx := context.Background()

	// a cached profile wins over the (empty) repository
	if err := c.SaveProfile(ctx, &domain.PlayerProfile{Name: "Ana", Rating: 1300}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if r := s.Rating(ctx, "Ana"); r != 1300 {
		t.Fatalf("cached rating = %d", r)
	}

	// applying a result refreshes the cache
	if _, _, err := s.ApplyResult(ctx, Result{Player1: "Bo", Player2: "Cleo", Winner: 1, EndedAt: time.Now()}); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	cached, err := c.LoadProfile(ctx, "Bo")
	if err != nil || cached == nil {
		t.Fatalf("cache not refreshed: %+v, %v", cached, err)
	}
	if cached.Rating != 1212 {
		t.Fatalf("cached rating after win = %d", cached.Rating)
	}
}
