package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"crossline/internal/domain"
)

func rec(gameID, p1, p2 string, winner int8, endedAt time.Time) *domain.MatchRecord {
	return &domain.MatchRecord{
		GameID:  gameID,
		Player1: p1,
		Player2: p2,
		Winner:  winner,
		Result:  "win",
		WinLine: []int{0, 9, 18, 27},
		EndedAt: endedAt,
	}
}

func TestSaveMatchAssignsIDAndRejectsDuplicates(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	id, err := repo.SaveMatch(ctx, rec("AAAA2222", "Ana", "Bo", 1, time.Now()))
	if err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	if id == "" {
		t.Fatalf("no id assigned")
	}
	if _, err := repo.SaveMatch(ctx, rec("AAAA2222", "Ana", "Bo", 2, time.Now())); !errors.Is(err, ErrDuplicateMatch) {
		t.Fatalf("duplicate game id: %v", err)
	}
}

func TestRecentMatchesOrderAndFilter(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	base := time.Now()

	for i, r := range []*domain.MatchRecord{
		rec("GAME2AAA", "Ana", "Bo", 1, base.Add(1*time.Minute)),
		rec("GAME2BBB", "Cleo", "Ana", 2, base.Add(3*time.Minute)),
		rec("GAME2CCC", "Bo", "Cleo", 1, base.Add(2*time.Minute)),
	} {
		if _, err := repo.SaveMatch(ctx, r); err != nil {
			t.Fatalf("SaveMatch %d: %v", i, err)
		}
	}

	got, err := repo.RecentMatches(ctx, "Ana", 10)
	if err != nil {
		t.Fatalf("RecentMatches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches for Ana = %d", len(got))
	}
	if got[0].GameID != "GAME2BBB" || got[1].GameID != "GAME2AAA" {
		t.Fatalf("order: %s, %s", got[0].GameID, got[1].GameID)
	}

	limited, _ := repo.RecentMatches(ctx, "Ana", 1)
	if len(limited) != 1 || limited[0].GameID != "GAME2BBB" {
		t.Fatalf("limit ignored: %+v", limited)
	}

	// returned records are copies
	got[0].WinLine[0] = 99
	again, _ := repo.RecentMatches(ctx, "Ana", 10)
	if again[0].WinLine[0] != 0 {
		t.Fatalf("stored win line mutated through a read")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	if p, err := repo.Profile(ctx, "ghost"); err != nil || p != nil {
		t.Fatalf("unknown profile = %+v, %v", p, err)
	}

	if err := repo.UpsertProfile(ctx, &domain.PlayerProfile{Name: "Ana", Rating: 1224, Wins: 1, GamesPlayed: 1}); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	p, err := repo.Profile(ctx, "Ana")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Rating != 1224 || p.Wins != 1 {
		t.Fatalf("profile = %+v", p)
	}

	p.Rating = 9999
	again, _ := repo.Profile(ctx, "Ana")
	if again.Rating != 1224 {
		t.Fatalf("stored profile mutated through a read")
	}
}
