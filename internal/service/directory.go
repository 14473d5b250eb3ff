package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rocketscienceinc/stonepaper-backend/internal/apperror"
	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
	"github.com/rocketscienceinc/stonepaper-backend/internal/pkg"
)

const maxRoomKeyAttempts = 5

// DirectoryService issues room identifiers with passcodes and checks join attempts.
type DirectoryService interface {
	Create(ctx context.Context, name, email string) (*entity.RoomCredentials, error)
	Verify(ctx context.Context, roomKey, passcode string) (bool, error)
	Release(ctx context.Context, roomKey string) error
}

type roomDirectoryRepo interface {
	Create(ctx context.Context, listing *entity.RoomListing, ttl time.Duration) error
	GetByKey(ctx context.Context, key string) (*entity.RoomListing, error)
	DeleteByKey(ctx context.Context, key string) error
}

type directoryService struct {
	repo     roomDirectoryRepo
	ttl      time.Duration
	hashCost int
	now      func() time.Time
}

func NewDirectoryService(repo roomDirectoryRepo, ttl time.Duration) DirectoryService {
	return newDirectoryService(repo, ttl, bcrypt.DefaultCost)
}

func newDirectoryService(repo roomDirectoryRepo, ttl time.Duration, hashCost int) *directoryService {
	return &directoryService{
		repo:     repo,
		ttl:      ttl,
		hashCost: hashCost,
		now:      time.Now,
	}
}

func (that *directoryService) Create(ctx context.Context, name, email string) (*entity.RoomCredentials, error) {
	passcode, err := pkg.GeneratePasscode()
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), that.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash passcode: %w", err)
	}

	now := that.now().UTC()

	for attempt := 0; attempt < maxRoomKeyAttempts; attempt++ {
		roomKey, err := pkg.GenerateRoomKey()
		if err != nil {
			return nil, err
		}

		listing := &entity.RoomListing{
			Key:          roomKey,
			OwnerName:    strings.TrimSpace(name),
			OwnerEmail:   strings.TrimSpace(email),
			PasscodeHash: string(hash),
			CreatedAt:    now,
			ExpiresAt:    now.Add(that.ttl),
		}

		err = that.repo.Create(ctx, listing, that.ttl)
		if errors.Is(err, apperror.ErrRoomAlreadyExists) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create room listing: %w", err)
		}

		return &entity.RoomCredentials{RoomKey: roomKey, Passcode: passcode}, nil
	}

	return nil, fmt.Errorf("%w: no free key after %d attempts", apperror.ErrRoomAlreadyExists, maxRoomKeyAttempts)
}

// Verify - reports whether passcode opens the room. An unknown or expired room is ErrRoomNotFound.
func (that *directoryService) Verify(ctx context.Context, roomKey, passcode string) (bool, error) {
	listing, err := that.repo.GetByKey(ctx, strings.TrimSpace(roomKey))
	if err != nil {
		return false, fmt.Errorf("failed to get room listing: %w", err)
	}

	if listing.IsExpired(that.now()) {
		return false, apperror.ErrRoomNotFound
	}

	err = bcrypt.CompareHashAndPassword([]byte(listing.PasscodeHash), []byte(passcode))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to compare passcode: %w", err)
	}

	return true, nil
}

// Release - removes the listing of a finished match. Rooms that were never listed are not an error.
func (that *directoryService) Release(ctx context.Context, roomKey string) error {
	err := that.repo.DeleteByKey(ctx, strings.TrimSpace(roomKey))
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete room listing: %w", err)
	}

	return nil
}
