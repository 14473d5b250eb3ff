package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

const (
	defaultDispatchWorkers   = 2
	defaultDispatchQueueSize = 64
	defaultTaskTimeout       = 10 * time.Second
)

type historyRecorder interface {
	Record(ctx context.Context, record *entity.MatchRecord) error
}

type roomReleaser interface {
	Release(ctx context.Context, roomKey string) error
}

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

type outcomeTask struct {
	name    string
	roomKey string
	run     func(ctx context.Context) error
}

// OutcomeDispatcher runs the side effects of a finished match off the match loop.
// Tasks are best-effort: a failure is logged and never retried, and a full queue drops the task.
type OutcomeDispatcher struct {
	logger   *slog.Logger
	history  historyRecorder
	notifier Notifier
	rooms    roomReleaser
	conf     DispatcherConfig
	now      func() time.Time

	tasks chan outcomeTask
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewOutcomeDispatcher(
	logger *slog.Logger, history historyRecorder, notifier Notifier, rooms roomReleaser, conf DispatcherConfig,
) *OutcomeDispatcher {
	dispatcher := newOutcomeDispatcher(logger, history, notifier, rooms, conf)
	dispatcher.start()

	return dispatcher
}

func newOutcomeDispatcher(
	logger *slog.Logger, history historyRecorder, notifier Notifier, rooms roomReleaser, conf DispatcherConfig,
) *OutcomeDispatcher {
	if conf.Workers <= 0 {
		conf.Workers = defaultDispatchWorkers
	}

	if conf.QueueSize <= 0 {
		conf.QueueSize = defaultDispatchQueueSize
	}

	if conf.TaskTimeout <= 0 {
		conf.TaskTimeout = defaultTaskTimeout
	}

	return &OutcomeDispatcher{
		logger:   logger,
		history:  history,
		notifier: notifier,
		rooms:    rooms,
		conf:     conf,
		now:      time.Now,
		tasks:    make(chan outcomeTask, conf.QueueSize),
	}
}

func (that *OutcomeDispatcher) start() {
	for i := 0; i < that.conf.Workers; i++ {
		that.wg.Add(1)
		go that.worker(i)
	}
}

// Dispatch - queues the history record, the notification and the release of the
// room listing for outcome. Never blocks.
func (that *OutcomeDispatcher) Dispatch(outcome *entity.MatchOutcome) {
	record := outcome.Record(that.now().UTC())
	notice := outcome.Notice()

	that.enqueue(outcomeTask{
		name:    "record-history",
		roomKey: outcome.RoomKey,
		run: func(ctx context.Context) error {
			return that.history.Record(ctx, record)
		},
	})

	that.enqueue(outcomeTask{
		name:    "notify-outcome",
		roomKey: outcome.RoomKey,
		run: func(ctx context.Context) error {
			return that.notifier.NotifyOutcome(ctx, notice)
		},
	})

	that.enqueue(outcomeTask{
		name:    "release-room",
		roomKey: outcome.RoomKey,
		run: func(ctx context.Context) error {
			return that.rooms.Release(ctx, outcome.RoomKey)
		},
	})
}

func (that *OutcomeDispatcher) enqueue(task outcomeTask) {
	log := that.logger.With("method", "enqueue", "task", task.name, "roomId", task.roomKey)

	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.closed {
		log.Warn("dispatcher is closed, task dropped")
		return
	}

	select {
	case that.tasks <- task:
	default:
		log.Warn("dispatch queue is full, task dropped")
	}
}

func (that *OutcomeDispatcher) worker(id int) {
	defer that.wg.Done()

	for task := range that.tasks {
		that.runTask(id, task)
	}
}

func (that *OutcomeDispatcher) runTask(workerID int, task outcomeTask) {
	log := that.logger.With("method", "runTask", "worker", workerID, "task", task.name, "roomId", task.roomKey)

	ctx, cancel := context.WithTimeout(context.Background(), that.conf.TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", "error", fmt.Sprint(r))
		}
	}()

	if err := task.run(ctx); err != nil {
		log.Error("task failed", "error", err)
		return
	}

	log.Debug("task done")
}

// Close - stops accepting tasks and waits for the queued ones to finish.
func (that *OutcomeDispatcher) Close() {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return
	}
	that.closed = true
	close(that.tasks)
	that.mu.Unlock()

	that.wg.Wait()
}
