package entity

import "time"

const (
	// ReasonPlayerLeft is stored with the match history record of a forfeit.
	ReasonPlayerLeft = "Player left"
	// ReasonLeave is sent to the notification service for a forfeit.
	ReasonLeave = "leave"
)

// TieBreak picks the forfeit winner when both participants have the same score.
type TieBreak int

const (
	TieBreakRemaining TieBreak = iota
	TieBreakDeparting
)

// DefaultTieBreak awards a drawn forfeit to the participant who stayed.
const DefaultTieBreak = TieBreakRemaining

type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Score int    `json:"score"`
}

type RoundPlayer struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Choice Symbol `json:"choice"`
	Score  int    `json:"score"`
}

type RoundResult struct {
	Text       string        `json:"text"`
	WinnerID   string        `json:"winnerId,omitempty"`
	WinnerName string        `json:"winnerName,omitempty"`
	Draw       bool          `json:"draw"`
	Round      int           `json:"round"`
	Players    []RoundPlayer `json:"players"`
}

// MatchOutcome is the final result of a match concluded by a departure.
type MatchOutcome struct {
	RoomKey    string      `json:"roomId"`
	PlayerA    Participant `json:"playerA"`
	PlayerB    Participant `json:"playerB"`
	WinnerID   string      `json:"winnerId"`
	WinnerName string      `json:"winnerName"`
	DepartedID string      `json:"departedId"`
	Rounds     int         `json:"rounds"`
}

// MatchRecord is what the history store keeps for a finished match.
type MatchRecord struct {
	ID         int64         `json:"id,omitempty"`
	RoomKey    string        `json:"roomId"`
	Players    []Participant `json:"players"`
	WinnerName string        `json:"winnerName"`
	Reason     string        `json:"reason"`
	Rounds     int           `json:"rounds"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// OutcomeNotice is what the notification service sends to both participants.
type OutcomeNotice struct {
	RoomKey    string      `json:"roomId"`
	PlayerA    Participant `json:"playerA"`
	PlayerB    Participant `json:"playerB"`
	WinnerName string      `json:"winnerName"`
	Rounds     int         `json:"rounds"`
	Reason     string      `json:"reason"`
}

// DecideForfeitWinner - the higher score wins; equal scores are settled by tieBreak.
func DecideForfeitWinner(departing, remaining Participant, tieBreak TieBreak) Participant {
	switch {
	case departing.Score > remaining.Score:
		return departing
	case remaining.Score > departing.Score:
		return remaining
	case tieBreak == TieBreakDeparting:
		return departing
	default:
		return remaining
	}
}

func (that *MatchOutcome) Record(finishedAt time.Time) *MatchRecord {
	return &MatchRecord{
		RoomKey:    that.RoomKey,
		Players:    []Participant{that.PlayerA, that.PlayerB},
		WinnerName: that.WinnerName,
		Reason:     ReasonPlayerLeft,
		Rounds:     that.Rounds,
		FinishedAt: finishedAt,
	}
}

func (that *MatchOutcome) Notice() *OutcomeNotice {
	return &OutcomeNotice{
		RoomKey:    that.RoomKey,
		PlayerA:    that.PlayerA,
		PlayerB:    that.PlayerB,
		WinnerName: that.WinnerName,
		Rounds:     that.Rounds,
		Reason:     ReasonLeave,
	}
}
