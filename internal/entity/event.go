package entity

// Outbound actions.
const (
	ActionConnected      = "connected"
	ActionUpdatePlayers  = "update-players"
	ActionStartCountdown = "start-countdown"
	ActionRoundResult    = "round-result"
	ActionPlayerLeft     = "player-left"
	ActionReceiveEmoji   = "receive-emoji"
	ActionMatchOver      = "match-over"
	ActionNoRoom         = "no-room"
	ActionRoomFinished   = "room-finished"
	ActionError          = "error"
)

// Envelope is an outbound event together with the identities it must reach.
// Recipients are resolved when the event is produced, not when it is delivered.
type Envelope struct {
	Recipients []string
	Action     string
	Payload    any
}

type PlayersPayload struct {
	Players []PlayerState `json:"players"`
}

type CountdownPayload struct {
	Seconds int `json:"seconds"`
}

type PlayerLeftPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type EmojiPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

type MatchOverPayload struct {
	WinnerID   string        `json:"winnerId"`
	WinnerName string        `json:"winnerName"`
	Reason     string        `json:"reason"`
	Rounds     int           `json:"rounds"`
	Players    []Participant `json:"players"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type ConnectedPayload struct {
	ID string `json:"id"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
