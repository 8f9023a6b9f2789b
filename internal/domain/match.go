package domain

import "time"

type MatchRecord struct {
	ID        string
	GameID    string
	Player1   string
	Player2   string
	Winner    int8
	Result    string
	WinLine   []int
	Moves     int
	Ranked    bool
	Rating1   int
	Rating2   int
	Delta1    int
	Delta2    int
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
}

type PlayerProfile struct {
	Name         string
	Rating       int
	GamesPlayed  int
	Wins         int
	Losses       int
	Draws        int
	Streak       int
	StreakType   string
	LastPlayedAt time.Time
	UpdatedAt    time.Time
	CreatedAt    time.Time
}
