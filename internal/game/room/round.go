package room

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/apperrors"
	"github.com/palemoky/doodle-relay/internal/game/passmap"
	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/types"
)

// Delivery is the outcome of routing one submission at round close.
type Delivery struct {
	Turn      Turn
	Delivered bool
}

// RoundResult describes what a submission did to its room.
type RoundResult struct {
	Round      int  // round the submission was recorded in
	Pending    int  // members that still have to submit, zero once closed
	Closed     bool // this submission completed the round
	Finished   bool // the game ended with this round
	Phase      Phase
	Deliveries []Delivery
}

// CoordinatorOption 配置 Coordinator
type CoordinatorOption func(*Coordinator)

// WithRand fixes the source used to shuffle players into a pass map.
func WithRand(rng *rand.Rand) CoordinatorOption {
	return func(c *Coordinator) { c.rng = rng }
}

// WithPassMap overrides pass map generation, mainly for scripted games.
func WithPassMap(gen func(ids []string) (map[string]string, error)) CoordinatorOption {
	return func(c *Coordinator) { c.genPassMap = gen }
}

// Coordinator runs the game inside a room: start, submissions, rounds.
type Coordinator struct {
	registry   *Registry
	persister  *Persister
	rng        *rand.Rand
	genPassMap func(ids []string) (map[string]string, error)
}

// NewCoordinator 创建回合协调器
func NewCoordinator(reg *Registry, persister *Persister, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{registry: reg, persister: persister}
	for _, opt := range opts {
		opt(c)
	}
	if c.genPassMap == nil {
		c.genPassMap = func(ids []string) (map[string]string, error) {
			return passmap.Generate(ids, c.rng)
		}
	}
	return c
}

// lookup returns the live room or ErrRoomNotFound.
func (c *Coordinator) lookup(roomID string) (*Room, error) {
	r := c.registry.Get(roomID)
	if r == nil {
		return nil, apperrors.ErrRoomNotFound
	}
	return r, nil
}

// StartGame moves a waiting room into the prompt phase. Only the host may
// start, the host must currently be a member, and the room needs at least
// MinPlayers members.
func (c *Coordinator) StartGame(ctx context.Context, roomID string, p *Player) error {
	r, err := c.lookup(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return apperrors.ErrRoomNotFound
	}
	if r.HostID != p.ID {
		return apperrors.ErrNotHost
	}
	if r.member(p.ID) == nil {
		return apperrors.ErrNotAMember
	}
	if len(r.members) < MinPlayers {
		return apperrors.ErrInsufficientPlayers
	}
	if r.phase != PhaseWaiting {
		return apperrors.ErrGameStarted
	}

	pm, err := c.genPassMap(r.memberIDs())
	if err != nil {
		return fmt.Errorf("generate pass map: %w", err)
	}

	r.passMap = pm
	r.phase = PhasePrompt
	r.round = 1
	r.history = nil
	r.resetRound()
	r.broadcastPhase()

	c.persister.setStatus(r.ID, types.RoomStatusPlaying)
	c.persister.saveSnapshot(r.snapshot())

	logger.WithRoom(r.ID).WithField("players", len(r.members)).Info("🎮 游戏开始")
	return nil
}

// Submit records content for p in the current round. A second submission
// in the same round replaces the first and does not count twice. The
// submission that completes the buffer closes the round before Submit
// returns, all under the room lock.
func (c *Coordinator) Submit(ctx context.Context, roomID string, p *Player, content string) (*RoundResult, error) {
	r, err := c.lookup(roomID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, apperrors.ErrRoomNotFound
	}
	if r.memberIndex(p.ID) < 0 {
		return nil, apperrors.ErrNotAMember
	}
	sub, err := NewSubmission(r.phase, content)
	if err != nil {
		return nil, err
	}

	if _, replaced := r.buffer[p.ID]; !replaced {
		r.order = append(r.order, p.ID)
	}
	r.buffer[p.ID] = sub

	res := &RoundResult{
		Round:   r.round,
		Pending: len(r.members) - len(r.buffer),
		Phase:   r.phase,
	}
	if len(r.buffer) == len(r.members) {
		c.closeRound(r, res)
	}
	return res, nil
}

// closeRound routes every buffered submission to its recipient and
// advances the room. Caller holds r.mu.
func (c *Coordinator) closeRound(r *Room, res *RoundResult) {
	log := logger.WithRoom(r.ID)

	for _, from := range r.order {
		to, ok := r.passMap[from]
		if !ok {
			log.WithField("player", from).Error("❌ 传递表中缺少玩家，跳过")
			continue
		}
		turn := Turn{Phase: r.phase, From: from, To: to, Content: r.buffer[from]}
		r.history = append(r.history, turn)

		delivered := false
		if rcpt := r.member(to); rcpt != nil {
			delivered = rcpt.Client.SendMessage(codec.MustNewMessage(protocol.MsgGameContent, turn.Payload()))
		}
		if !delivered {
			log.WithFields(logrus.Fields{"from": from, "to": to}).Warn("📭 内容投递失败，已丢弃")
		}
		res.Deliveries = append(res.Deliveries, Delivery{Turn: turn, Delivered: delivered})
	}

	closedPhase := r.phase
	r.resetRound()
	r.round++

	if r.round > len(r.members) {
		r.phase = PhaseFinished
		r.passMap = nil
		c.persister.setStatus(r.ID, types.RoomStatusFinished)
		res.Finished = true
	} else {
		r.phase = closedPhase.Next()
	}
	r.broadcastPhase()
	c.persister.saveSnapshot(r.snapshot())

	res.Closed = true
	res.Pending = 0
	res.Phase = r.phase

	log.WithFields(logrus.Fields{
		"phase": closedPhase.String(),
		"next":  r.phase.String(),
		"round": r.round,
	}).Info("🔄 回合结束")
	if res.Finished {
		log.WithField("turns", len(r.history)).Info("🏁 游戏结束")
	}
}

// History returns the turns played in roomID so far.
func (c *Coordinator) History(roomID string) ([]Turn, error) {
	r, err := c.lookup(roomID)
	if err != nil {
		return nil, err
	}
	return r.History(), nil
}
