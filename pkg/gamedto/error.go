package gamedto

// DomainError is the one error shape the transport layer sees. Every failure
// in the game service is local and recoverable; Retryable marks the ones a
// client may simply try again.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "game service error"
}

const (
	CodeValidation  = "validation_failed"
	CodeNotFound    = "game_not_found"
	CodeFull        = "game_full"
	CodeNameTaken   = "name_taken"
	CodeNotYourTurn = "not_your_turn"
	CodeQueueBusy   = "already_queued"
	CodeInternal    = "internal_error"
)
