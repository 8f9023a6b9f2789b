package gamedto

import "time"

// Snapshot is one broadcast frame: the encoded state plus addressing for the
// transport layer. Data is opaque to everything except the wire codec.
type Snapshot struct {
	GameID string
	Seq    int64
	At     time.Time
	Data   []byte
}

type PlayerInfo struct {
	Name      string
	Number    int8
	Connected bool
	Rating    int
}

// MatchNotice tells one queued player their pairing came through.
type MatchNotice struct {
	GameID       string
	PlayerNumber int8
	OpponentName string
	Ranked       bool
	Message      string
}
