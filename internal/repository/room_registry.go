package repository

import (
	"sort"

	"github.com/rocketscienceinc/stonepaper-backend/internal/apperror"
	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

// RoomRegistry keeps the live rooms of this process. It has no locking: it is
// owned by a single match loop and must not be shared between goroutines.
type RoomRegistry struct {
	rooms map[string]*entity.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*entity.Room),
	}
}

func (that *RoomRegistry) GetByKey(key string) (*entity.Room, error) {
	room, ok := that.rooms[key]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

// GetOrCreate - returns the room for key, creating an empty one on first use.
func (that *RoomRegistry) GetOrCreate(key string) *entity.Room {
	room, ok := that.rooms[key]
	if !ok {
		room = entity.NewRoom(key)
		that.rooms[key] = room
	}

	return room
}

func (that *RoomRegistry) DeleteByKey(key string) {
	delete(that.rooms, key)
}

// RoomsOf - every room the identity is a member of, ordered by key.
func (that *RoomRegistry) RoomsOf(identity string) []*entity.Room {
	var rooms []*entity.Room
	for _, room := range that.rooms {
		if room.HasPlayer(identity) {
			rooms = append(rooms, room)
		}
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].Key < rooms[j].Key
	})

	return rooms
}

func (that *RoomRegistry) Len() int {
	return len(that.rooms)
}
