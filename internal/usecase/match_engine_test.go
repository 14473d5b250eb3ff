package usecase

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
	"github.com/rocketscienceinc/stonepaper-backend/internal/repository"
)

const (
	roomKey = "abcd"
	p1      = "p1"
	p2      = "p2"
	p3      = "p3"
)

type mockDispatcher struct {
	mock.Mock
}

func (that *mockDispatcher) Dispatch(outcome *entity.MatchOutcome) {
	that.Called(outcome)
}

func strPtr(s string) *string {
	return &s
}

func newTestEngine(t *testing.T) (*MatchEngine, *repository.RoomRegistry, *mockDispatcher) {
	t.Helper()

	registry := repository.NewRoomRegistry()
	dispatcher := &mockDispatcher{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	engine := NewMatchEngine(logger, registry, dispatcher, 0)
	engine.randomName = func() string { return "Player7" }

	return engine, registry, dispatcher
}

func findEnvelope(t *testing.T, envelopes []entity.Envelope, action string) entity.Envelope {
	t.Helper()

	for _, envelope := range envelopes {
		if envelope.Action == action {
			return envelope
		}
	}

	require.Failf(t, "envelope not found", "action %q in %v", action, actions(envelopes))
	return entity.Envelope{}
}

func hasEnvelope(envelopes []entity.Envelope, action string) bool {
	for _, envelope := range envelopes {
		if envelope.Action == action {
			return true
		}
	}

	return false
}

func actions(envelopes []entity.Envelope) []string {
	result := make([]string, 0, len(envelopes))
	for _, envelope := range envelopes {
		result = append(result, envelope.Action)
	}

	return result
}

// playRound readies both players and submits their choices, returning the round result.
func playRound(t *testing.T, engine *MatchEngine, first, second string) *entity.RoundResult {
	t.Helper()

	engine.SetReady(roomKey, p1, true)
	engine.SetReady(roomKey, p2, true)

	require.Nil(t, engine.SubmitChoice(roomKey, p1, strPtr(first)))
	envelopes := engine.SubmitChoice(roomKey, p2, strPtr(second))

	result, ok := findEnvelope(t, envelopes, entity.ActionRoundResult).Payload.(*entity.RoundResult)
	require.True(t, ok)

	return result
}

func joinPair(engine *MatchEngine) {
	engine.Join(roomKey, p1, "Ann", "ann@example.com")
	engine.Join(roomKey, p2, "Bo", "bo@example.com")
}

func TestMatchEngine_Join(t *testing.T) {
	t.Run("Creates the room and broadcasts presence", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)

		// When: two players join
		engine.Join(roomKey, p1, "Ann", "")
		envelopes := engine.Join(roomKey, p2, "Bo", "")

		// Then: both receive a presence snapshot in join order
		require.Len(t, envelopes, 1)
		assert.Equal(t, entity.ActionUpdatePlayers, envelopes[0].Action)
		assert.Equal(t, []string{p1, p2}, envelopes[0].Recipients)

		payload := envelopes[0].Payload.(entity.PlayersPayload)
		assert.Equal(t, []entity.PlayerState{
			{ID: p1, Name: "Ann"},
			{ID: p2, Name: "Bo"},
		}, payload.Players)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("Joining twice is idempotent", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)

		engine.Join(roomKey, p1, "Ann", "")
		engine.Join(roomKey, p1, "Other", "")

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.Equal(t, []string{p1}, room.Players)
		assert.Equal(t, "Ann", room.Name(p1))
	})

	t.Run("Empty room key answers no-room", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)

		envelopes := engine.Join("  ", p1, "Ann", "")

		require.Len(t, envelopes, 1)
		assert.Equal(t, entity.ActionNoRoom, envelopes[0].Action)
		assert.Equal(t, []string{p1}, envelopes[0].Recipients)
		assert.Zero(t, registry.Len())
	})

	t.Run("Empty name gets a generated one", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)

		engine.Join(roomKey, p1, "", "")

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.Equal(t, "Player7", room.Name(p1))
	})

	t.Run("Finished room refuses new members", func(t *testing.T) {
		engine, registry, dispatcher := newTestEngine(t)
		dispatcher.On("Dispatch", mock.Anything).Once()

		engine.Join(roomKey, p1, "Ann", "")
		engine.Join(roomKey, p2, "Bo", "")
		engine.Disconnect(p1)

		envelopes := engine.Join(roomKey, p3, "Cy", "")

		require.Len(t, envelopes, 1)
		assert.Equal(t, entity.ActionRoomFinished, envelopes[0].Action)
		assert.Equal(t, []string{p3}, envelopes[0].Recipients)

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.False(t, room.HasPlayer(p3))
	})
}

func TestMatchEngine_SetReady(t *testing.T) {
	t.Run("Countdown starts once everyone is ready", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		joinPair(engine)

		// When: only the first player is ready
		first := engine.SetReady(roomKey, p1, true)

		// Then: presence is broadcast without a countdown
		assert.Equal(t, []string{entity.ActionUpdatePlayers}, actions(first))

		// When: the second player gets ready too
		second := engine.SetReady(roomKey, p2, true)

		// Then: the countdown with the default duration reaches both
		countdown := findEnvelope(t, second, entity.ActionStartCountdown)
		assert.Equal(t, entity.CountdownPayload{Seconds: DefaultCountdownSeconds}, countdown.Payload)
		assert.Equal(t, []string{p1, p2}, countdown.Recipients)
	})

	t.Run("Unready never starts a countdown", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		joinPair(engine)

		engine.SetReady(roomKey, p1, true)
		engine.SetReady(roomKey, p2, true)
		envelopes := engine.SetReady(roomKey, p2, false)

		assert.Equal(t, []string{entity.ActionUpdatePlayers}, actions(envelopes))
		assert.False(t, envelopes[0].Payload.(entity.PlayersPayload).Players[1].Ready)
	})

	t.Run("Readiness resets after each round", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		joinPair(engine)

		playRound(t, engine, "paper", "stone")

		// When: only one player gets ready again
		envelopes := engine.SetReady(roomKey, p1, true)

		// Then: no countdown fires until the other is ready as well
		assert.False(t, hasEnvelope(envelopes, entity.ActionStartCountdown))
		assert.True(t, hasEnvelope(engine.SetReady(roomKey, p2, true), entity.ActionStartCountdown))
	})

	t.Run("Missing room is a no-op", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)

		assert.Nil(t, engine.SetReady("zzzz", p1, true))
		assert.Zero(t, registry.Len())
	})

	t.Run("Non-member is ignored", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		joinPair(engine)

		assert.Nil(t, engine.SetReady(roomKey, p3, true))
	})

	t.Run("Uses the configured countdown", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		engine.countdownSeconds = 3
		engine.Join(roomKey, p1, "Ann", "")

		envelopes := engine.SetReady(roomKey, p1, true)

		countdown := findEnvelope(t, envelopes, entity.ActionStartCountdown)
		assert.Equal(t, entity.CountdownPayload{Seconds: 3}, countdown.Payload)
	})
}

func TestMatchEngine_SubmitChoice(t *testing.T) {
	t.Run("Paper beats stone", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)
		joinPair(engine)

		// When: Ann plays paper and Bo plays stone
		result := playRound(t, engine, "paper", "stone")

		// Then: Ann wins the first round
		assert.Equal(t, p1, result.WinnerID)
		assert.Equal(t, "Ann", result.WinnerName)
		assert.False(t, result.Draw)
		assert.Equal(t, "Ann wins - paper beats stone", result.Text)
		assert.Equal(t, 1, result.Round)
		assert.Equal(t, []entity.RoundPlayer{
			{ID: p1, Name: "Ann", Choice: entity.SymbolPaper, Score: 1},
			{ID: p2, Name: "Bo", Choice: entity.SymbolStone, Score: 0},
		}, result.Players)

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.Equal(t, 1, room.Rounds)
		assert.Empty(t, room.Choices)
		assert.False(t, room.Ready[p1])
		assert.False(t, room.Ready[p2])
	})

	t.Run("Draw leaves scores unchanged", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)
		joinPair(engine)

		playRound(t, engine, "paper", "stone")
		result := playRound(t, engine, "paper", "paper")

		assert.True(t, result.Draw)
		assert.Empty(t, result.WinnerID)
		assert.Equal(t, "Draw - both chose paper", result.Text)
		assert.Equal(t, 2, result.Round)

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.Equal(t, 1, room.Scores[p1])
		assert.Equal(t, 0, room.Scores[p2])
		assert.Equal(t, 2, room.Rounds)
	})

	t.Run("Scores count won rounds", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)
		joinPair(engine)

		rounds := [][2]string{
			{"stone", "scissor"},
			{"scissor", "stone"},
			{"paper", "paper"},
			{"scissor", "paper"},
			{"stone", "paper"},
			{"stone", "scissor"},
		}
		for _, round := range rounds {
			playRound(t, engine, round[0], round[1])
		}

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.Equal(t, 3, room.Scores[p1])
		assert.Equal(t, 2, room.Scores[p2])
		assert.Equal(t, len(rounds), room.Rounds)
	})

	t.Run("Completing choice resolves exactly once", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		joinPair(engine)

		engine.SubmitChoice(roomKey, p1, strPtr("stone"))
		envelopes := engine.SubmitChoice(roomKey, p2, strPtr("paper"))

		assert.Equal(t, []string{entity.ActionRoundResult, entity.ActionUpdatePlayers}, actions(envelopes))

		// a lone follow-up choice waits for the other player
		assert.Nil(t, engine.SubmitChoice(roomKey, p1, strPtr("stone")))
	})

	t.Run("Missing choice defaults to stone", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		joinPair(engine)

		engine.SubmitChoice(roomKey, p1, nil)
		envelopes := engine.SubmitChoice(roomKey, p2, strPtr("lizard"))

		result := findEnvelope(t, envelopes, entity.ActionRoundResult).Payload.(*entity.RoundResult)
		assert.True(t, result.Draw)
		assert.Equal(t, entity.SymbolStone, result.Players[0].Choice)
		assert.Equal(t, entity.SymbolStone, result.Players[1].Choice)
	})

	t.Run("Every member must choose but only the first two score", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)
		joinPair(engine)
		engine.Join(roomKey, p3, "Cy", "")

		engine.SubmitChoice(roomKey, p1, strPtr("scissor"))
		assert.Nil(t, engine.SubmitChoice(roomKey, p2, strPtr("paper")))

		envelopes := engine.SubmitChoice(roomKey, p3, strPtr("stone"))

		result := findEnvelope(t, envelopes, entity.ActionRoundResult).Payload.(*entity.RoundResult)
		assert.Equal(t, p1, result.WinnerID)
		assert.Len(t, result.Players, 2)

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.Equal(t, 0, room.Scores[p3])
	})

	t.Run("Lone player plays against an absent opponent", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		engine.Join(roomKey, p1, "Ann", "")

		envelopes := engine.SubmitChoice(roomKey, p1, strPtr("paper"))

		result := findEnvelope(t, envelopes, entity.ActionRoundResult).Payload.(*entity.RoundResult)
		assert.Equal(t, p1, result.WinnerID)
		assert.Equal(t, "Player 2", result.Players[1].Name)
		assert.Empty(t, result.Players[1].ID)
	})

	t.Run("Missing room is a no-op", func(t *testing.T) {
		engine, registry, _ := newTestEngine(t)

		assert.Nil(t, engine.SubmitChoice("zzzz", p1, strPtr("paper")))
		assert.Zero(t, registry.Len())
	})

	t.Run("Finished room ignores choices", func(t *testing.T) {
		engine, registry, dispatcher := newTestEngine(t)
		dispatcher.On("Dispatch", mock.Anything).Once()

		joinPair(engine)
		engine.Join(roomKey, p3, "Cy", "")
		engine.Disconnect(p1)

		assert.Nil(t, engine.SubmitChoice(roomKey, p2, strPtr("paper")))
		assert.Nil(t, engine.SetReady(roomKey, p2, true))

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.Empty(t, room.Choices)
	})
}

func TestMatchEngine_PaddedRoomKey(t *testing.T) {
	engine, registry, _ := newTestEngine(t)
	padded := " " + roomKey + " "

	// Given: both players join with surrounding whitespace in the key
	engine.Join(padded, p1, "Ann", "")
	engine.Join(padded, p2, "Bo", "")

	// When: they ready up and choose with the same padded key
	engine.SetReady(padded, p1, true)
	ready := engine.SetReady(padded, p2, true)

	require.Nil(t, engine.SubmitChoice(padded, p1, strPtr("paper")))
	round := engine.SubmitChoice(padded, p2, strPtr("stone"))

	emoji := engine.SendEmoji(padded, p1, "🙂")

	// Then: every event lands in the trimmed room
	assert.Equal(t, 1, registry.Len())
	_, err := registry.GetByKey(roomKey)
	require.NoError(t, err)

	assert.True(t, hasEnvelope(ready, entity.ActionStartCountdown))
	assert.True(t, hasEnvelope(round, entity.ActionRoundResult))
	assert.True(t, hasEnvelope(emoji, entity.ActionReceiveEmoji))
}

func TestMatchEngine_SendEmoji(t *testing.T) {
	t.Run("Relays to every member", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		joinPair(engine)

		envelopes := engine.SendEmoji(roomKey, p2, "🔥")

		require.Len(t, envelopes, 1)
		assert.Equal(t, entity.ActionReceiveEmoji, envelopes[0].Action)
		assert.Equal(t, []string{p1, p2}, envelopes[0].Recipients)
		assert.Equal(t, entity.EmojiPayload{ID: p2, Name: "Bo", Emoji: "🔥"}, envelopes[0].Payload)
	})

	t.Run("Missing room is a no-op", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)

		assert.Nil(t, engine.SendEmoji("zzzz", p1, "🔥"))
	})

	t.Run("Non-member emoji still reaches the room", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		joinPair(engine)

		envelopes := engine.SendEmoji(roomKey, p3, "🔥")

		require.Len(t, envelopes, 1)
		assert.Equal(t, []string{p1, p2}, envelopes[0].Recipients)
		assert.Equal(t, entity.EmojiPayload{ID: p3, Name: "Player", Emoji: "🔥"}, envelopes[0].Payload)
	})
}

func TestMatchEngine_Disconnect(t *testing.T) {
	t.Run("Forfeit on a tie goes to the remaining player and fires once", func(t *testing.T) {
		engine, registry, dispatcher := newTestEngine(t)
		joinPair(engine)

		// Given: Ann and Bo at two wins each
		playRound(t, engine, "paper", "stone")
		playRound(t, engine, "stone", "paper")
		playRound(t, engine, "scissor", "paper")
		playRound(t, engine, "scissor", "stone")

		var outcome *entity.MatchOutcome
		dispatcher.On("Dispatch", mock.Anything).
			Run(func(args mock.Arguments) {
				outcome = args.Get(0).(*entity.MatchOutcome)
			}).
			Once()

		// When: Ann disconnects
		envelopes := engine.Disconnect(p1)

		// Then: Bo wins by forfeit and is told so
		require.NotNil(t, outcome)
		assert.Equal(t, p2, outcome.WinnerID)
		assert.Equal(t, "Bo", outcome.WinnerName)
		assert.Equal(t, p1, outcome.DepartedID)
		assert.Equal(t, 4, outcome.Rounds)
		assert.Equal(t, 2, outcome.PlayerA.Score)
		assert.Equal(t, 2, outcome.PlayerB.Score)
		assert.Equal(t, entity.ReasonLeave, outcome.Notice().Reason)

		assert.Equal(t, []string{entity.ActionPlayerLeft, entity.ActionUpdatePlayers, entity.ActionMatchOver}, actions(envelopes))
		for _, envelope := range envelopes {
			assert.Equal(t, []string{p2}, envelope.Recipients)
		}

		left := findEnvelope(t, envelopes, entity.ActionPlayerLeft)
		assert.Equal(t, entity.PlayerLeftPayload{ID: p1, Name: "Ann"}, left.Payload)

		over := findEnvelope(t, envelopes, entity.ActionMatchOver).Payload.(entity.MatchOverPayload)
		assert.Equal(t, "Bo", over.WinnerName)
		assert.Equal(t, entity.ReasonPlayerLeft, over.Reason)
		for _, player := range over.Players {
			assert.Empty(t, player.Email)
		}

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.True(t, room.Finished)

		// When: Bo disconnects as well
		assert.Empty(t, engine.Disconnect(p2))

		// Then: the room is gone and nothing more was dispatched
		_, err = registry.GetByKey(roomKey)
		require.Error(t, err)
		assert.Zero(t, registry.Len())
		dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
	})

	t.Run("Higher score wins the forfeit even when it leaves", func(t *testing.T) {
		engine, _, dispatcher := newTestEngine(t)
		joinPair(engine)

		playRound(t, engine, "paper", "stone")

		var outcome *entity.MatchOutcome
		dispatcher.On("Dispatch", mock.Anything).
			Run(func(args mock.Arguments) {
				outcome = args.Get(0).(*entity.MatchOutcome)
			}).
			Once()

		engine.Disconnect(p1)

		require.NotNil(t, outcome)
		assert.Equal(t, p1, outcome.WinnerID)
	})

	t.Run("Lone player leaving deletes the room without a forfeit", func(t *testing.T) {
		engine, registry, dispatcher := newTestEngine(t)
		engine.Join(roomKey, p1, "Ann", "")

		envelopes := engine.Disconnect(p1)

		assert.Empty(t, envelopes)
		assert.Zero(t, registry.Len())
		dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)
	})

	t.Run("Third member leaving is a plain removal", func(t *testing.T) {
		engine, registry, dispatcher := newTestEngine(t)
		joinPair(engine)
		engine.Join(roomKey, p3, "Cy", "")

		envelopes := engine.Disconnect(p3)

		assert.Equal(t, []string{entity.ActionPlayerLeft, entity.ActionUpdatePlayers}, actions(envelopes))
		dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)

		room, err := registry.GetByKey(roomKey)
		require.NoError(t, err)
		assert.False(t, room.Finished)
		assert.Equal(t, []string{p1, p2}, room.Players)
	})

	t.Run("Leaves every room the identity is in", func(t *testing.T) {
		engine, registry, dispatcher := newTestEngine(t)
		engine.Join("room-a", p1, "Ann", "")
		engine.Join("room-b", p1, "Ann", "")
		engine.Join("room-b", p2, "Bo", "")

		engine.Join("room-c", p2, "Bo", "")

		// p1 is a participant of room-b, so leaving it is a forfeit
		dispatcher.On("Dispatch", mock.Anything).Once()

		envelopes := engine.Disconnect(p1)

		assert.Equal(t, 2, registry.Len())
		assert.Empty(t, registry.RoomsOf(p1))
		assert.True(t, hasEnvelope(envelopes, entity.ActionMatchOver))
		dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
	})

	t.Run("Unknown identity does nothing", func(t *testing.T) {
		engine, registry, dispatcher := newTestEngine(t)
		joinPair(engine)

		assert.Empty(t, engine.Disconnect("ghost"))
		assert.Equal(t, 1, registry.Len())
		dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything)
	})
}
