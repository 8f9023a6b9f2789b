package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"crossline/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS crossline_matches (
	id          UUID PRIMARY KEY,
	game_id     TEXT NOT NULL UNIQUE,
	player1     TEXT NOT NULL,
	player2     TEXT NOT NULL,
	winner      SMALLINT NOT NULL DEFAULT 0,
	result      TEXT NOT NULL DEFAULT '',
	win_line    JSONB NOT NULL DEFAULT '[]',
	moves       INTEGER NOT NULL DEFAULT 0,
	ranked      BOOLEAN NOT NULL DEFAULT FALSE,
	rating1     INTEGER NOT NULL DEFAULT 0,
	rating2     INTEGER NOT NULL DEFAULT 0,
	delta1      INTEGER NOT NULL DEFAULT 0,
	delta2      INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	ended_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	duration_ms BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS crossline_matches_player1_idx ON crossline_matches (player1, ended_at DESC);
CREATE INDEX IF NOT EXISTS crossline_matches_player2_idx ON crossline_matches (player2, ended_at DESC);
CREATE TABLE IF NOT EXISTS crossline_profiles (
	name           TEXT PRIMARY KEY,
	rating         INTEGER NOT NULL DEFAULT 1200,
	games_played   INTEGER NOT NULL DEFAULT 0,
	wins           INTEGER NOT NULL DEFAULT 0,
	losses         INTEGER NOT NULL DEFAULT 0,
	draws          INTEGER NOT NULL DEFAULT 0,
	streak         INTEGER NOT NULL DEFAULT 0,
	streak_type    TEXT NOT NULL DEFAULT '',
	last_played_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type Postgres struct {
	db *sql.DB
}

// NewPostgres opens the archive database and makes sure its tables exist.
func NewPostgres(databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) SaveMatch(ctx context.Context, rec *domain.MatchRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("nil match payload")
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	winLine, err := json.Marshal(rec.WinLine)
	if err != nil {
		return "", fmt.Errorf("marshal win_line: %w", err)
	}

	const query = `
		INSERT INTO crossline_matches (
			id, game_id, player1, player2,
			winner, result, win_line, moves, ranked,
			rating1, rating2, delta1, delta2,
			started_at, ended_at, duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (game_id) DO NOTHING
		RETURNING id`

	var got sql.NullString
	err = p.db.QueryRowContext(
		ctx,
		query,
		id,
		rec.GameID,
		rec.Player1,
		rec.Player2,
		rec.Winner,
		rec.Result,
		winLine,
		rec.Moves,
		rec.Ranked,
		rec.Rating1,
		rec.Rating2,
		rec.Delta1,
		rec.Delta2,
		rec.StartedAt,
		rec.EndedAt,
		rec.Duration.Milliseconds(),
	).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !got.Valid) {
		return "", ErrDuplicateMatch
	}
	if err != nil {
		return "", fmt.Errorf("insert match: %w", err)
	}
	return got.String, nil
}

func (p *Postgres) RecentMatches(ctx context.Context, player string, limit int) ([]*domain.MatchRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			id, game_id, player1, player2,
			winner, result, win_line, moves, ranked,
			rating1, rating2, delta1, delta2,
			started_at, ended_at, duration_ms
		FROM crossline_matches
		WHERE player1 = $1 OR player2 = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := p.db.QueryContext(ctx, query, player, limit)
	if err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.MatchRecord, 0, limit)
	for rows.Next() {
		var (
			rec         domain.MatchRecord
			winLineJSON []byte
			durationMS  sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.GameID,
			&rec.Player1,
			&rec.Player2,
			&rec.Winner,
			&rec.Result,
			&winLineJSON,
			&rec.Moves,
			&rec.Ranked,
			&rec.Rating1,
			&rec.Rating2,
			&rec.Delta1,
			&rec.Delta2,
			&rec.StartedAt,
			&rec.EndedAt,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if durationMS.Valid {
			rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		}
		if err := json.Unmarshal(winLineJSON, &rec.WinLine); err != nil {
			return nil, fmt.Errorf("unmarshal win_line: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (p *Postgres) Profile(ctx context.Context, name string) (*domain.PlayerProfile, error) {
	const query = `
		SELECT
			name, rating, games_played,
			wins, losses, draws,
			streak, streak_type,
			last_played_at, updated_at, created_at
		FROM crossline_profiles
		WHERE name = $1
		LIMIT 1`

	var profile domain.PlayerProfile
	err := p.db.QueryRowContext(ctx, query, name).Scan(
		&profile.Name,
		&profile.Rating,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.Losses,
		&profile.Draws,
		&profile.Streak,
		&profile.StreakType,
		&profile.LastPlayedAt,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &profile, nil
}

func (p *Postgres) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return fmt.Errorf("nil profile payload")
	}
	const query = `
		INSERT INTO crossline_profiles (
			name, rating, games_played,
			wins, losses, draws,
			streak, streak_type,
			last_played_at, updated_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (name)
		DO UPDATE SET
			rating = EXCLUDED.rating,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	_, err := p.db.ExecContext(
		ctx,
		query,
		profile.Name,
		profile.Rating,
		profile.GamesPlayed,
		profile.Wins,
		profile.Losses,
		profile.Draws,
		profile.Streak,
		profile.StreakType,
		profile.LastPlayedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
