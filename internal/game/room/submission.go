package room

import (
	"github.com/palemoky/doodle-relay/internal/apperrors"
	"github.com/palemoky/doodle-relay/internal/protocol"
)

// Submission is one player's contribution for a round. The concrete type
// is fixed by the phase the round was played in.
type Submission interface {
	Phase() Phase
	// String is the content as it travels on the wire.
	String() string
}

// Prompt is the opening text of a paper.
type Prompt struct{ Value string }

// Drawing is an encoded picture, typically a data URL.
type Drawing struct{ Data []byte }

// Guess is a caption written for a received drawing.
type Guess struct{ Value string }

func (Prompt) Phase() Phase  { return PhasePrompt }
func (Drawing) Phase() Phase { return PhaseDraw }
func (Guess) Phase() Phase   { return PhaseGuess }

func (s Prompt) String() string  { return s.Value }
func (s Drawing) String() string { return string(s.Data) }
func (s Guess) String() string   { return s.Value }

// NewSubmission tags raw content with the phase it was submitted in.
func NewSubmission(phase Phase, content string) (Submission, error) {
	switch phase {
	case PhasePrompt:
		return Prompt{Value: content}, nil
	case PhaseDraw:
		return Drawing{Data: []byte(content)}, nil
	case PhaseGuess:
		return Guess{Value: content}, nil
	default:
		return nil, apperrors.ErrGameNotActive
	}
}

// Turn is one routed hand-off, kept in the room's history.
type Turn struct {
	Phase   Phase
	From    string
	To      string
	Content Submission
}

// Payload renders the turn as a game_content frame body.
func (t Turn) Payload() protocol.GameContentPayload {
	return protocol.GameContentPayload{
		Type:    t.Phase.String(),
		From:    t.From,
		To:      t.To,
		Content: t.Content.String(),
	}
}
