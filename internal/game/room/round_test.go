package room

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/doodle-relay/internal/apperrors"
	"github.com/palemoky/doodle-relay/internal/game/passmap"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/types"
)

func TestCoordinator_StartGameErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	a, _ := newTestPlayer("a")
	err := f.coord.StartGame(t.Context(), "missing", a)
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)

	solo, players, _ := f.openRoom(t, "a")
	err = f.coord.StartGame(t.Context(), solo.ID, players["a"])
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPlayers)
	assert.Equal(t, PhaseWaiting, solo.Phase())

	r, players, _ := f.openRoom(t, "h", "g")
	err = f.coord.StartGame(t.Context(), r.ID, players["g"])
	assert.ErrorIs(t, err, apperrors.ErrNotHost)
	assert.Equal(t, PhaseWaiting, r.Phase())

	require.NoError(t, f.coord.StartGame(t.Context(), r.ID, players["h"]))
	err = f.coord.StartGame(t.Context(), r.ID, players["h"])
	assert.ErrorIs(t, err, apperrors.ErrGameStarted)
}

func TestCoordinator_HostMustBeMemberToStart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// The persisted host of a materialized room never joined it.
	f.seedRoom("r1", "h")
	for _, id := range []string{"g1", "g2"} {
		p, _ := newTestPlayer(id)
		_, err := f.membership.JoinRoom(t.Context(), "r1", p)
		require.NoError(t, err)
	}
	h, _ := newTestPlayer("h")
	err := f.coord.StartGame(t.Context(), "r1", h)
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)

	// A host who left keeps the host id but can no longer start.
	r, players, _ := f.openRoom(t, "a", "b", "c")
	require.NoError(t, f.membership.LeaveRoom(t.Context(), r.ID, players["a"]))
	err = f.coord.StartGame(t.Context(), r.ID, players["a"])
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)
	assert.Equal(t, PhaseWaiting, r.Phase())
}

func TestCoordinator_StartGame(t *testing.T) {
	t.Parallel()
	f := newFixture(t, WithRand(rand.New(rand.NewPCG(1, 2))))
	r, players, clients := f.openRoom(t, "a", "b", "c", "d")

	require.NoError(t, f.coord.StartGame(t.Context(), r.ID, players["a"]))

	assert.Equal(t, PhasePrompt, r.Phase())
	assert.Equal(t, 1, r.Round())
	assert.Empty(t, r.History())

	pm := r.PassMap()
	require.Len(t, pm, 4)
	for id, to := range pm {
		assert.NotEqual(t, id, to)
		assert.Equal(t, 4, passmap.CycleLength(pm, id))
	}

	for id, c := range clients {
		phase := decode[protocol.GamePhasePayload](t, c.LastOfType(protocol.MsgGamePhase))
		assert.Equal(t, protocol.GamePhasePayload{Phase: "prompt", Round: 1}, phase, id)
	}

	f.flush()
	rec, _ := f.store.Record(r.ID)
	assert.Equal(t, types.RoomStatusPlaying, rec.Status)
	snap, ok := f.store.Snapshot(r.ID)
	require.True(t, ok)
	assert.Equal(t, "prompt", snap.Phase)
	assert.Equal(t, pm, snap.PassMap)
}

func TestCoordinator_SubmitErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r, players, _ := f.openRoom(t, "a", "b")
	outsider, _ := newTestPlayer("x")

	_, err := f.coord.Submit(t.Context(), "missing", players["a"], "hi")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)

	_, err = f.coord.Submit(t.Context(), r.ID, players["a"], "hi")
	assert.ErrorIs(t, err, apperrors.ErrGameNotActive, "waiting room")

	require.NoError(t, f.coord.StartGame(t.Context(), r.ID, players["a"]))
	_, err = f.coord.Submit(t.Context(), r.ID, outsider, "hi")
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)
}

// Members [A,B,C] with pass map A→B→C→A, all submitting in prompt.
func TestCoordinator_RoundRouting(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r, players, clients := f.openRoom(t, "A", "B", "C")
	require.NoError(t, f.coord.StartGame(t.Context(), r.ID, players["A"]))
	require.Equal(t, passmap.FromOrder("A", "B", "C"), r.PassMap())
	for _, c := range clients {
		c.Reset()
	}

	res, err := f.coord.Submit(t.Context(), r.ID, players["A"], "x")
	require.NoError(t, err)
	assert.False(t, res.Closed)
	assert.Equal(t, 2, res.Pending)

	_, err = f.coord.Submit(t.Context(), r.ID, players["B"], "y")
	require.NoError(t, err)
	for _, c := range clients {
		assert.Empty(t, c.MessagesOfType(protocol.MsgGameContent), "nothing is routed before the round closes")
	}

	res, err = f.coord.Submit(t.Context(), r.ID, players["C"], "z")
	require.NoError(t, err)
	assert.True(t, res.Closed)
	assert.False(t, res.Finished)
	assert.Equal(t, 1, res.Round)
	assert.Equal(t, PhaseDraw, res.Phase)
	require.Len(t, res.Deliveries, 3)
	for _, d := range res.Deliveries {
		assert.True(t, d.Delivered)
	}

	want := map[string]protocol.GameContentPayload{
		"B": {Type: "prompt", From: "A", To: "B", Content: "x"},
		"C": {Type: "prompt", From: "B", To: "C", Content: "y"},
		"A": {Type: "prompt", From: "C", To: "A", Content: "z"},
	}
	for id, payload := range want {
		msgs := clients[id].MessagesOfType(protocol.MsgGameContent)
		require.Len(t, msgs, 1, id)
		assert.Equal(t, payload, decode[protocol.GameContentPayload](t, msgs[0]))

		phase := decode[protocol.GamePhasePayload](t, clients[id].LastOfType(protocol.MsgGamePhase))
		assert.Equal(t, protocol.GamePhasePayload{Phase: "draw", Round: 2}, phase)
	}

	assert.Equal(t, PhaseDraw, r.Phase())
	assert.Equal(t, 2, r.Round())
	assert.Zero(t, r.PendingSubmissions())

	history, err := f.coord.History(r.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, Turn{Phase: PhasePrompt, From: "A", To: "B", Content: Prompt{Value: "x"}}, history[0])
}

func TestCoordinator_ResubmitOverwrites(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r, players, clients := f.openRoom(t, "a", "b")
	require.NoError(t, f.coord.StartGame(t.Context(), r.ID, players["a"]))

	for _, content := range []string{"first", "second"} {
		res, err := f.coord.Submit(t.Context(), r.ID, players["a"], content)
		require.NoError(t, err)
		assert.False(t, res.Closed)
		assert.Equal(t, 1, res.Pending)
	}
	assert.Equal(t, 1, r.PendingSubmissions())
	assert.Equal(t, PhasePrompt, r.Phase())

	res, err := f.coord.Submit(t.Context(), r.ID, players["b"], "other")
	require.NoError(t, err)
	require.True(t, res.Closed)

	got := decode[protocol.GameContentPayload](t, clients["b"].LastOfType(protocol.MsgGameContent))
	assert.Equal(t, "second", got.Content)
	assert.Len(t, r.History(), 2)
}

func TestCoordinator_GameFinishesAfterOneRoundPerPlayer(t *testing.T) {
	t.Parallel()

	for n := MinPlayers; n <= MaxPlayers; n++ {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, WithRand(rand.New(rand.NewPCG(uint64(n), 7))))
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("p%d", i)
			}
			r, players, clients := f.openRoom(t, ids...)
			require.NoError(t, f.coord.StartGame(t.Context(), r.ID, players[ids[0]]))

			var phases []Phase
			for round := 1; round <= n; round++ {
				phases = append(phases, r.Phase())
				var res *RoundResult
				for _, id := range ids {
					var err error
					res, err = f.coord.Submit(t.Context(), r.ID, players[id], fmt.Sprintf("%s-%d", id, round))
					require.NoError(t, err)
				}
				require.True(t, res.Closed)
				assert.Equal(t, round == n, res.Finished)
			}

			assert.Equal(t, PhaseFinished, r.Phase())
			assert.Equal(t, n+1, r.Round())
			assert.Len(t, r.History(), n*n)
			assert.Nil(t, r.PassMap())

			assert.Equal(t, PhasePrompt, phases[0])
			for i := 1; i < len(phases); i++ {
				if i%2 == 1 {
					assert.Equal(t, PhaseDraw, phases[i])
				} else {
					assert.Equal(t, PhaseGuess, phases[i])
				}
			}

			for _, c := range clients {
				last := decode[protocol.GamePhasePayload](t, c.LastOfType(protocol.MsgGamePhase))
				assert.Equal(t, protocol.GamePhasePayload{Phase: "finished"}, last)
				assert.Len(t, c.MessagesOfType(protocol.MsgGameContent), n)
			}

			_, err := f.coord.Submit(t.Context(), r.ID, players[ids[0]], "late")
			assert.ErrorIs(t, err, apperrors.ErrGameNotActive)
			assert.ErrorIs(t, f.coord.StartGame(t.Context(), r.ID, players[ids[0]]), apperrors.ErrGameStarted)

			f.flush()
			rec, _ := f.store.Record(r.ID)
			assert.Equal(t, types.RoomStatusFinished, rec.Status)
		})
	}
}

func TestCoordinator_DroppedDelivery(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r, players, clients := f.openRoom(t, "a", "b")
	require.NoError(t, f.coord.StartGame(t.Context(), r.ID, players["a"]))
	clients["b"].SetClosed(true)

	_, err := f.coord.Submit(t.Context(), r.ID, players["a"], "for b")
	require.NoError(t, err)
	res, err := f.coord.Submit(t.Context(), r.ID, players["b"], "for a")
	require.NoError(t, err)

	require.True(t, res.Closed)
	outcome := map[string]bool{}
	for _, d := range res.Deliveries {
		outcome[d.Turn.To] = d.Delivered
	}
	assert.Equal(t, map[string]bool{"b": false, "a": true}, outcome)

	// the dropped turn is still part of the history and the game advances
	assert.Len(t, r.History(), 2)
	assert.Equal(t, PhaseDraw, r.Phase())
	assert.Empty(t, clients["b"].MessagesOfType(protocol.MsgGameContent))
}

func TestCoordinator_ConcurrentSubmitsCloseRoundOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ids := make([]string, MaxPlayers)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}
	r, players, _ := f.openRoom(t, ids...)
	require.NoError(t, f.coord.StartGame(t.Context(), r.ID, players[ids[0]]))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		closes int
	)
	for _, id := range ids {
		p := players[id]
		wg.Go(func() {
			// each player submits twice; the overwrite must not close early
			for range 2 {
				res, err := f.coord.Submit(t.Context(), r.ID, p, "c-"+p.ID)
				if errors.Is(err, apperrors.ErrGameNotActive) {
					return
				}
				if !assert.NoError(t, err) {
					return
				}
				if res.Closed {
					mu.Lock()
					closes++
					mu.Unlock()
				}
			}
		})
	}
	wg.Wait()

	assert.GreaterOrEqual(t, closes, 1)
	assert.Equal(t, closes, r.Round()-1)
	// every closed round routed exactly one turn per member
	assert.Len(t, r.History(), MaxPlayers*(r.Round()-1))
}

func TestCoordinator_HistoryUnknownRoom(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.coord.History("missing")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}
