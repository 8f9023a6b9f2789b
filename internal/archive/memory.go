package archive

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"crossline/internal/domain"
)

// memory is the repository used when no database is configured.
type memory struct {
	mu sync.RWMutex

	byGame   map[string]*domain.MatchRecord
	byPlayer map[string][]*domain.MatchRecord
	profiles map[string]*domain.PlayerProfile
}

func NewMemory() Repository {
	return &memory{
		byGame:   make(map[string]*domain.MatchRecord),
		byPlayer: make(map[string][]*domain.MatchRecord),
		profiles: make(map[string]*domain.PlayerProfile),
	}
}

func (m *memory) SaveMatch(ctx context.Context, rec *domain.MatchRecord) (string, error) {
	if rec == nil {
		return "", ErrDuplicateMatch
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byGame[rec.GameID]; exists {
		return "", ErrDuplicateMatch
	}
	cp := cloneRecord(rec)
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	m.byGame[cp.GameID] = cp
	m.byPlayer[cp.Player1] = append(m.byPlayer[cp.Player1], cp)
	if cp.Player2 != cp.Player1 {
		m.byPlayer[cp.Player2] = append(m.byPlayer[cp.Player2], cp)
	}
	return cp.ID, nil
}

func (m *memory) RecentMatches(ctx context.Context, player string, limit int) ([]*domain.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byPlayer[player]
	if len(list) == 0 {
		return []*domain.MatchRecord{}, nil
	}
	items := append([]*domain.MatchRecord(nil), list...)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].GameID > items[j].GameID
	})
	if limit <= 0 {
		limit = 10
	}
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]*domain.MatchRecord, len(items))
	for i, rec := range items {
		out[i] = cloneRecord(rec)
	}
	return out, nil
}

func (m *memory) Profile(ctx context.Context, name string) (*domain.PlayerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[profileKey(name)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memory) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return nil
	}
	cp := *profile
	m.mu.Lock()
	m.profiles[profileKey(profile.Name)] = &cp
	m.mu.Unlock()
	return nil
}

func profileKey(name string) string {
	return strings.TrimSpace(name)
}

func cloneRecord(rec *domain.MatchRecord) *domain.MatchRecord {
	cp := *rec
	cp.WinLine = append([]int(nil), rec.WinLine...)
	return &cp
}
