package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

const defaultCommandQueueSize = 256

var ErrLoopStopped = errors.New("match loop is stopped")

type matchEngine interface {
	Join(roomKey, identity, name, email string) []entity.Envelope
	SetReady(roomKey, identity string, value bool) []entity.Envelope
	SubmitChoice(roomKey, identity string, choice *string) []entity.Envelope
	SendEmoji(roomKey, identity, emoji string) []entity.Envelope
	Disconnect(identity string) []entity.Envelope
}

type envelopePublisher interface {
	Publish(envelopes []entity.Envelope)
}

type command struct {
	name string
	run  func() []entity.Envelope
}

// MatchLoop serializes every client event onto one goroutine, so rooms are
// only ever touched by Run.
type MatchLoop struct {
	logger    *slog.Logger
	engine    matchEngine
	publisher envelopePublisher

	commands chan command
	done     chan struct{}
}

func NewMatchLoop(logger *slog.Logger, engine matchEngine, publisher envelopePublisher, queueSize int) *MatchLoop {
	if queueSize <= 0 {
		queueSize = defaultCommandQueueSize
	}

	return &MatchLoop{
		logger:    logger,
		engine:    engine,
		publisher: publisher,
		commands:  make(chan command, queueSize),
		done:      make(chan struct{}),
	}
}

// Run - processes commands in arrival order until ctx is cancelled. Commands
// already queued at that point still run before Run returns.
func (that *MatchLoop) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	defer close(that.done)

	log.Info("match loop started")

	for {
		select {
		case <-ctx.Done():
			that.drain()
			log.Info("match loop stopped")
			return
		case cmd := <-that.commands:
			that.execute(cmd)
		}
	}
}

func (that *MatchLoop) drain() {
	for {
		select {
		case cmd := <-that.commands:
			that.execute(cmd)
		default:
			return
		}
	}
}

// Done - closed once Run has returned.
func (that *MatchLoop) Done() <-chan struct{} {
	return that.done
}

func (that *MatchLoop) execute(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("command panicked", "method", "execute", "command", cmd.name, "error", r)
		}
	}()

	envelopes := cmd.run()
	if len(envelopes) > 0 {
		that.publisher.Publish(envelopes)
	}
}

func (that *MatchLoop) submit(ctx context.Context, cmd command) error {
	select {
	case <-that.done:
		return ErrLoopStopped
	default:
	}

	select {
	case that.commands <- cmd:
		return nil
	case <-that.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (that *MatchLoop) Join(ctx context.Context, roomKey, identity, name, email string) error {
	return that.submit(ctx, command{name: "join", run: func() []entity.Envelope {
		return that.engine.Join(roomKey, identity, name, email)
	}})
}

func (that *MatchLoop) SetReady(ctx context.Context, roomKey, identity string, value bool) error {
	return that.submit(ctx, command{name: "ready", run: func() []entity.Envelope {
		return that.engine.SetReady(roomKey, identity, value)
	}})
}

func (that *MatchLoop) SubmitChoice(ctx context.Context, roomKey, identity string, choice *string) error {
	return that.submit(ctx, command{name: "choice", run: func() []entity.Envelope {
		return that.engine.SubmitChoice(roomKey, identity, choice)
	}})
}

func (that *MatchLoop) SendEmoji(ctx context.Context, roomKey, identity, emoji string) error {
	return that.submit(ctx, command{name: "emoji", run: func() []entity.Envelope {
		return that.engine.SendEmoji(roomKey, identity, emoji)
	}})
}

func (that *MatchLoop) Disconnect(ctx context.Context, identity string) error {
	return that.submit(ctx, command{name: "disconnect", run: func() []entity.Envelope {
		return that.engine.Disconnect(identity)
	}})
}
