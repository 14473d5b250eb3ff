package entity

import (
	"fmt"

	"github.com/rocketscienceinc/stonepaper-backend/internal/apperror"
)

const (
	defaultPlayerName = "Player"
	firstPlayerName   = "Player 1"
	secondPlayerName  = "Player 2"
)

// Room is the volatile state of one match. It is not safe for concurrent use:
// every mutation happens on the match loop goroutine.
type Room struct {
	Key string `json:"key"`

	// Players keeps join order; the first two are the scoring participants.
	Players []string          `json:"players"`
	Names   map[string]string `json:"names"`
	Emails  map[string]string `json:"emails"`
	Ready   map[string]bool   `json:"ready"`
	Choices map[string]Symbol `json:"choices"`
	Scores  map[string]int    `json:"scores"`

	Rounds   int  `json:"rounds"`
	Finished bool `json:"finished"`
}

// PlayerState is one row of the presence snapshot.
type PlayerState struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Score int    `json:"score"`
}

func NewRoom(key string) *Room {
	return &Room{
		Key:     key,
		Players: []string{},
		Names:   make(map[string]string),
		Emails:  make(map[string]string),
		Ready:   make(map[string]bool),
		Choices: make(map[string]Symbol),
		Scores:  make(map[string]int),
	}
}

func (that *Room) HasPlayer(id string) bool {
	for _, player := range that.Players {
		if player == id {
			return true
		}
	}

	return false
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

// Name - returns the display name of a member, or a generic one when it is unknown.
func (that *Room) Name(id string) string {
	if name, ok := that.Names[id]; ok && name != "" {
		return name
	}

	return defaultPlayerName
}

// Join - adds a member. It reports false when the identity was already present;
// name, email and score of an existing member are left untouched.
func (that *Room) Join(id, name, email string) (bool, error) {
	if that.Finished {
		return false, apperror.ErrRoomFinished
	}

	if that.HasPlayer(id) {
		return false, nil
	}

	that.Players = append(that.Players, id)
	that.Names[id] = name
	that.Emails[id] = email
	that.Ready[id] = false
	that.Scores[id] = 0

	return true, nil
}

// Leave - removes a member and purges every per-player entry.
func (that *Room) Leave(id string) bool {
	if !that.HasPlayer(id) {
		return false
	}

	remaining := make([]string, 0, len(that.Players)-1)
	for _, player := range that.Players {
		if player != id {
			remaining = append(remaining, player)
		}
	}
	that.Players = remaining

	delete(that.Names, id)
	delete(that.Emails, id)
	delete(that.Ready, id)
	delete(that.Choices, id)
	delete(that.Scores, id)

	return true
}

func (that *Room) SetReady(id string, value bool) error {
	if that.Finished {
		return apperror.ErrRoomFinished
	}

	if !that.HasPlayer(id) {
		return apperror.ErrNotInRoom
	}

	that.Ready[id] = value

	return nil
}

// AllReady - holds when the room has members and every one of them is ready.
func (that *Room) AllReady() bool {
	if len(that.Players) == 0 {
		return false
	}

	for _, player := range that.Players {
		if !that.Ready[player] {
			return false
		}
	}

	return true
}

// SubmitChoice - records the member's symbol for the current round. A repeated
// submission before resolution overwrites the previous one.
func (that *Room) SubmitChoice(id string, symbol Symbol) error {
	if that.Finished {
		return apperror.ErrRoomFinished
	}

	if !that.HasPlayer(id) {
		return apperror.ErrNotInRoom
	}

	if !symbol.IsValid() {
		symbol = DefaultSymbol
	}

	that.Choices[id] = symbol

	return nil
}

// ChoicesComplete - true once every member has a choice for the current round.
func (that *Room) ChoicesComplete() bool {
	return len(that.Players) > 0 && len(that.Choices) == len(that.Players)
}

// ResolveRound - scores the current round between the first two members, then
// clears choices and readiness. Members beyond the second take no part in the outcome.
func (that *Room) ResolveRound() *RoundResult {
	first := that.roundPlayer(0, firstPlayerName)
	second := that.roundPlayer(1, secondPlayerName)

	result := &RoundResult{}

	switch Resolve(first.Choice, second.Choice) {
	case VerdictDraw:
		result.Draw = true
		result.Text = fmt.Sprintf("Draw - both chose %s", first.Choice)
	case VerdictFirst:
		result.WinnerID, result.WinnerName = first.ID, first.Name
		result.Text = fmt.Sprintf("%s wins - %s beats %s", first.Name, first.Choice, second.Choice)
	case VerdictSecond:
		result.WinnerID, result.WinnerName = second.ID, second.Name
		result.Text = fmt.Sprintf("%s wins - %s beats %s", second.Name, second.Choice, first.Choice)
	}

	if result.WinnerID != "" {
		that.Scores[result.WinnerID]++
	}
	that.Rounds++

	first.Score = that.Scores[first.ID]
	second.Score = that.Scores[second.ID]

	result.Round = that.Rounds
	result.Players = []RoundPlayer{first, second}

	that.Choices = make(map[string]Symbol)
	for _, player := range that.Players {
		that.Ready[player] = false
	}

	return result
}

func (that *Room) roundPlayer(index int, fallbackName string) RoundPlayer {
	if index >= len(that.Players) {
		return RoundPlayer{Name: fallbackName, Choice: DefaultSymbol}
	}

	id := that.Players[index]

	name := that.Names[id]
	if name == "" {
		name = fallbackName
	}

	choice, ok := that.Choices[id]
	if !ok {
		choice = DefaultSymbol
	}

	return RoundPlayer{ID: id, Name: name, Choice: choice}
}

// Forfeit - concludes the match because a participant is leaving. It must run
// before the departing member is purged so that its score is still readable.
func (that *Room) Forfeit(departing string) (*MatchOutcome, error) {
	if that.Finished {
		return nil, apperror.ErrRoomFinished
	}

	if len(that.Players) < 2 {
		return nil, apperror.ErrNoOpponent
	}

	first, second := that.participant(that.Players[0]), that.participant(that.Players[1])

	var leaver, remaining Participant
	switch departing {
	case first.ID:
		leaver, remaining = first, second
	case second.ID:
		leaver, remaining = second, first
	default:
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotParticipant, departing)
	}

	winner := DecideForfeitWinner(leaver, remaining, DefaultTieBreak)

	that.Finished = true

	return &MatchOutcome{
		RoomKey:    that.Key,
		PlayerA:    first,
		PlayerB:    second,
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		DepartedID: leaver.ID,
		Rounds:     that.Rounds,
	}, nil
}

func (that *Room) participant(id string) Participant {
	return Participant{
		ID:    id,
		Name:  that.Name(id),
		Email: that.Emails[id],
		Score: that.Scores[id],
	}
}

// Presence - snapshot of every member in join order.
func (that *Room) Presence() []PlayerState {
	players := make([]PlayerState, 0, len(that.Players))
	for _, id := range that.Players {
		players = append(players, PlayerState{
			ID:    id,
			Name:  that.Name(id),
			Ready: that.Ready[id],
			Score: that.Scores[id],
		})
	}

	return players
}
