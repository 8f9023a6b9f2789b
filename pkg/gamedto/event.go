package gamedto

const (
	EventMatchFound   = "match_found"
	EventOpponentLeft = "opponent_left"
	EventGameOver     = "game_over"
)

// Event is a direct, single-recipient notice outside the snapshot stream.
// Match is set for match_found events only.
type Event struct {
	Kind    string
	GameID  string
	Message string
	Match   *MatchNotice
}
