package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/stonepaper-backend/internal/apperror"
	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

const roomKeyPrefix = "room:"

type RoomDirectoryRepository interface {
	Create(ctx context.Context, listing *entity.RoomListing, ttl time.Duration) error
	GetByKey(ctx context.Context, key string) (*entity.RoomListing, error)
	DeleteByKey(ctx context.Context, key string) error
}

type dbRoomDirectory struct {
	client *redis.Client
}

func NewRoomDirectoryRepository(client *redis.Client) RoomDirectoryRepository {
	return &dbRoomDirectory{
		client: client,
	}
}

// Create - stores a listing that expires after ttl. An existing key is never overwritten.
func (that *dbRoomDirectory) Create(ctx context.Context, listing *entity.RoomListing, ttl time.Duration) error {
	listingJSON, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal room listing: %w", err)
	}

	created, err := that.client.SetNX(ctx, roomKeyPrefix+listing.Key, listingJSON, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to set room listing: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", apperror.ErrRoomAlreadyExists, listing.Key)
	}

	return nil
}

func (that *dbRoomDirectory) GetByKey(ctx context.Context, key string) (*entity.RoomListing, error) {
	response, err := that.client.Get(ctx, roomKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room listing by key: %w", err)
	}

	var listing entity.RoomListing
	if err = json.Unmarshal([]byte(response), &listing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room listing: %w", err)
	}

	return &listing, nil
}

func (that *dbRoomDirectory) DeleteByKey(ctx context.Context, key string) error {
	deleted, err := that.client.Del(ctx, roomKeyPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete room listing by key: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrRoomNotFound
	}

	return nil
}
