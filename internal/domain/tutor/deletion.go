package tutor

import "github.com/google/uuid"

// Deletion summarizes rows removed when an attempt is rolled back.
type Deletion struct {
	ThreadID      uuid.UUID   `json:"thread_id"`
	MessageIDs    []uuid.UUID `json:"message_ids"`
	ViewPieceIDs  []uuid.UUID `json:"view_piece_ids,omitempty"`
	CompletionIDs []uuid.UUID `json:"completion_ids,omitempty"`
	FlagIDs       []uuid.UUID `json:"flag_ids,omitempty"`
}

func (d Deletion) Empty() bool {
	return len(d.MessageIDs) == 0 && len(d.ViewPieceIDs) == 0 && len(d.CompletionIDs) == 0 && len(d.FlagIDs) == 0
}
