package entity

import "time"

// RoomListing is the directory entry of a room. The raw passcode is never stored.
type RoomListing struct {
	Key          string    `json:"key"`
	OwnerName    string    `json:"owner_name"`
	OwnerEmail   string    `json:"owner_email"`
	PasscodeHash string    `json:"passcode_hash"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RoomCredentials are handed once to the room creator.
type RoomCredentials struct {
	RoomKey  string `json:"roomId"`
	Passcode string `json:"passcode"`
}

func (that *RoomListing) IsExpired(now time.Time) bool {
	return !that.ExpiresAt.IsZero() && now.After(that.ExpiresAt)
}
