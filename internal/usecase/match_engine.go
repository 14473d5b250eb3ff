package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/rocketscienceinc/stonepaper-backend/internal/apperror"
	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

const DefaultCountdownSeconds = 10

type roomRegistry interface {
	GetByKey(key string) (*entity.Room, error)
	GetOrCreate(key string) *entity.Room
	DeleteByKey(key string)
	RoomsOf(identity string) []*entity.Room
}

type outcomeDispatcher interface {
	Dispatch(outcome *entity.MatchOutcome)
}

// MatchEngine applies client events to rooms and returns the events to deliver.
// It is not safe for concurrent use; MatchLoop is its only caller in production.
type MatchEngine struct {
	logger           *slog.Logger
	rooms            roomRegistry
	outcomes         outcomeDispatcher
	countdownSeconds int

	randomName func() string
}

func NewMatchEngine(logger *slog.Logger, rooms roomRegistry, outcomes outcomeDispatcher, countdownSeconds int) *MatchEngine {
	if countdownSeconds <= 0 {
		countdownSeconds = DefaultCountdownSeconds
	}

	return &MatchEngine{
		logger:           logger,
		rooms:            rooms,
		outcomes:         outcomes,
		countdownSeconds: countdownSeconds,
		randomName: func() string {
			return fmt.Sprintf("Player%d", rand.IntN(999))
		},
	}
}

// Join - adds identity to the room, creating the room on first use.
func (that *MatchEngine) Join(roomKey, identity, name, email string) []entity.Envelope {
	roomKey = normalizeRoomKey(roomKey)
	log := that.logger.With("method", "Join", "roomId", roomKey, "identity", identity)

	if roomKey == "" {
		return []entity.Envelope{{
			Recipients: []string{identity},
			Action:     entity.ActionNoRoom,
			Payload:    entity.RoomPayload{},
		}}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = that.randomName()
	}

	room := that.rooms.GetOrCreate(roomKey)

	added, err := room.Join(identity, name, strings.TrimSpace(email))
	if errors.Is(err, apperror.ErrRoomFinished) {
		log.Debug("join refused, match is finished")
		return []entity.Envelope{{
			Recipients: []string{identity},
			Action:     entity.ActionRoomFinished,
			Payload:    entity.RoomPayload{RoomID: roomKey},
		}}
	}

	if added {
		log.Info("player joined", "name", name, "players", len(room.Players))
	}

	return []entity.Envelope{presence(room)}
}

// SetReady - updates readiness and starts the countdown once every member is ready.
func (that *MatchEngine) SetReady(roomKey, identity string, value bool) []entity.Envelope {
	roomKey = normalizeRoomKey(roomKey)
	log := that.logger.With("method", "SetReady", "roomId", roomKey, "identity", identity)

	room, err := that.rooms.GetByKey(roomKey)
	if err != nil {
		log.Debug("room is missing")
		return nil
	}

	if err = room.SetReady(identity, value); err != nil {
		log.Debug("ready ignored", "error", err)
		return nil
	}

	envelopes := []entity.Envelope{presence(room)}

	if value && room.AllReady() {
		log.Info("all players ready, countdown started", "seconds", that.countdownSeconds)

		envelopes = append(envelopes, entity.Envelope{
			Recipients: slices.Clone(room.Players),
			Action:     entity.ActionStartCountdown,
			Payload:    entity.CountdownPayload{Seconds: that.countdownSeconds},
		})
	}

	return envelopes
}

// SubmitChoice - records the symbol and resolves the round once every member has chosen.
// A nil, empty or unknown choice counts as the default symbol.
func (that *MatchEngine) SubmitChoice(roomKey, identity string, choice *string) []entity.Envelope {
	roomKey = normalizeRoomKey(roomKey)
	log := that.logger.With("method", "SubmitChoice", "roomId", roomKey, "identity", identity)

	room, err := that.rooms.GetByKey(roomKey)
	if err != nil {
		log.Debug("room is missing")
		return nil
	}

	if err = room.SubmitChoice(identity, entity.ParseSymbol(choice)); err != nil {
		log.Debug("choice ignored", "error", err)
		return nil
	}

	if !room.ChoicesComplete() {
		return nil
	}

	result := room.ResolveRound()

	log.Info("round resolved", "round", result.Round, "draw", result.Draw, "winner", result.WinnerName)

	return []entity.Envelope{
		{
			Recipients: slices.Clone(room.Players),
			Action:     entity.ActionRoundResult,
			Payload:    result,
		},
		presence(room),
	}
}

// SendEmoji - relays an emoji to every member of the room. The sender does not have to be a member.
func (that *MatchEngine) SendEmoji(roomKey, identity, emoji string) []entity.Envelope {
	roomKey = normalizeRoomKey(roomKey)
	log := that.logger.With("method", "SendEmoji", "roomId", roomKey, "identity", identity)

	room, err := that.rooms.GetByKey(roomKey)
	if err != nil {
		log.Debug("room is missing")
		return nil
	}

	return []entity.Envelope{{
		Recipients: slices.Clone(room.Players),
		Action:     entity.ActionReceiveEmoji,
		Payload: entity.EmojiPayload{
			ID:    identity,
			Name:  room.Name(identity),
			Emoji: emoji,
		},
	}}
}

// Disconnect - removes identity from every room it is in. The departure of a
// participant from an active match forfeits it before the member is purged.
func (that *MatchEngine) Disconnect(identity string) []entity.Envelope {
	log := that.logger.With("method", "Disconnect", "identity", identity)

	var envelopes []entity.Envelope

	for _, room := range that.rooms.RoomsOf(identity) {
		name := room.Name(identity)

		var outcome *entity.MatchOutcome
		if !room.Finished && len(room.Players) >= 2 {
			var err error
			outcome, err = room.Forfeit(identity)
			if err != nil {
				log.Debug("departure is not a forfeit", "roomId", room.Key, "error", err)
			}
		}

		room.Leave(identity)

		if outcome != nil {
			log.Info("match forfeited", "roomId", room.Key, "winner", outcome.WinnerName, "rounds", outcome.Rounds)
			that.outcomes.Dispatch(outcome)
		}

		if room.IsEmpty() {
			that.rooms.DeleteByKey(room.Key)
			log.Info("room deleted", "roomId", room.Key)
			continue
		}

		envelopes = append(envelopes,
			entity.Envelope{
				Recipients: slices.Clone(room.Players),
				Action:     entity.ActionPlayerLeft,
				Payload:    entity.PlayerLeftPayload{ID: identity, Name: name},
			},
			presence(room),
		)

		if outcome != nil {
			envelopes = append(envelopes, matchOver(room, outcome))
		}
	}

	return envelopes
}

// normalizeRoomKey - room keys are compared without surrounding whitespace.
func normalizeRoomKey(roomKey string) string {
	return strings.TrimSpace(roomKey)
}

func presence(room *entity.Room) entity.Envelope {
	return entity.Envelope{
		Recipients: slices.Clone(room.Players),
		Action:     entity.ActionUpdatePlayers,
		Payload:    entity.PlayersPayload{Players: room.Presence()},
	}
}

func matchOver(room *entity.Room, outcome *entity.MatchOutcome) entity.Envelope {
	players := []entity.Participant{outcome.PlayerA, outcome.PlayerB}
	for i := range players {
		players[i].Email = ""
	}

	return entity.Envelope{
		Recipients: slices.Clone(room.Players),
		Action:     entity.ActionMatchOver,
		Payload: entity.MatchOverPayload{
			WinnerID:   outcome.WinnerID,
			WinnerName: outcome.WinnerName,
			Reason:     entity.ReasonPlayerLeft,
			Rounds:     outcome.Rounds,
			Players:    players,
		},
	}
}
