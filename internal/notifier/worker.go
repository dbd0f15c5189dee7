package notifier

import (
	"context"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/pgmq"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the worker needs.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, maxMessages, pollSec int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

// DeadLetters records messages that exhausted their retries.
type DeadLetters interface {
	Record(ctx context.Context, source, eventType string, payload []byte, attempts int, cause error) error
}

// WorkerConfig tunes the pgmq polling loop.
type WorkerConfig struct {
	Queue           string
	DeadLetterQueue string
	PollTimeoutSec  int
	PollMaxMsg      int
	VisibilitySec   int
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

func WorkerConfigFrom(cfg *config.Config) WorkerConfig {
	return WorkerConfig{
		Queue:           cfg.NotifierQueueName,
		DeadLetterQueue: cfg.NotifierDeadLetterQueueName,
		PollTimeoutSec:  cfg.NotifierPollTimeoutSec,
		PollMaxMsg:      cfg.NotifierPollMaxMsg,
		VisibilitySec:   cfg.NotifierVisibilitySec,
		MaxRetries:      cfg.NotifierMaxRetries,
		BackoffInitial:  time.Duration(cfg.NotifierBackoffInitialSec) * time.Second,
		BackoffMax:      time.Duration(cfg.NotifierBackoffMaxSec) * time.Second,
	}
}

// Worker drains a pgmq queue into an events.Handler.
type Worker struct {
	queue   Queue
	handle  events.Handler
	dlq     DeadLetters
	cfg     WorkerConfig
	logger  zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration)
	readErr time.Duration
}

func NewWorker(queue Queue, handle events.Handler, dlq DeadLetters, cfg WorkerConfig, logger zerolog.Logger) *Worker {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.PollMaxMsg < 1 {
		cfg.PollMaxMsg = 1
	}
	return &Worker{
		queue:   queue,
		handle:  handle,
		dlq:     dlq,
		cfg:     cfg,
		logger:  logger.With().Str("queue", cfg.Queue).Logger(),
		sleep:   sleepCtx,
		readErr: time.Second,
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("Starting notification worker")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down notification worker")
			return nil
		default:
		}

		msgs, err := w.queue.ReadWithPoll(ctx, w.cfg.Queue, w.cfg.VisibilitySec, w.cfg.PollMaxMsg, w.cfg.PollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading notification queue")
			w.sleep(ctx, w.readErr)
			continue
		}
		for _, msg := range msgs {
			w.process(ctx, msg)
		}
	}
}

// process handles one message with retry and backoff. Malformed messages and
// messages that exhaust their retries go to the dead-letter queue; either way
// the original is deleted.
func (w *Worker) process(ctx context.Context, msg *pgmq.Message) {
	log := w.logger.With().Int64("msg_id", msg.ID).Logger()

	e, err := events.Decode(msg.Data)
	if err != nil {
		log.Error().Err(err).Msg("Malformed notification payload; dead-lettering")
		w.deadLetter(ctx, msg, "", 1, err)
		return
	}
	log = log.With().Str("event_type", e.Type).Str("event_id", e.ID).Logger()

	backoff := w.cfg.BackoffInitial
	var handleErr error
	attempt := 1
	for ; attempt <= w.cfg.MaxRetries; attempt++ {
		if handleErr = w.handle(ctx, e); handleErr == nil {
			break
		}
		if attempt == w.cfg.MaxRetries || ctx.Err() != nil {
			break
		}
		log.Warn().Err(handleErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("Notification failed, retrying")
		w.sleep(ctx, backoff)
		backoff *= 2
		if w.cfg.BackoffMax > 0 && backoff > w.cfg.BackoffMax {
			backoff = w.cfg.BackoffMax
		}
	}

	if handleErr != nil {
		if ctx.Err() != nil {
			// Leave the message; it becomes visible again after the timeout.
			return
		}
		log.Warn().Err(handleErr).Int("attempts", attempt).Msg("Exhausted notification retries; moving to DLQ")
		w.deadLetter(ctx, msg, e.Type, attempt, handleErr)
		return
	}

	if err := w.queue.Delete(ctx, w.cfg.Queue, []int64{msg.ID}); err != nil {
		log.Error().Err(err).Msg("Error deleting notification message")
	}
}

func (w *Worker) deadLetter(ctx context.Context, msg *pgmq.Message, eventType string, attempts int, cause error) {
	log := w.logger.With().Int64("msg_id", msg.ID).Logger()
	sinks, stored := 0, 0
	if w.cfg.DeadLetterQueue != "" {
		sinks++
		if err := w.queue.Send(ctx, w.cfg.DeadLetterQueue, msg.Data); err != nil {
			log.Error().Err(err).Str("dlq", w.cfg.DeadLetterQueue).Msg("Failed to send message to dead-letter queue")
		} else {
			stored++
		}
	}
	if w.dlq != nil {
		sinks++
		if err := w.dlq.Record(ctx, "pgmq:"+w.cfg.Queue, eventType, msg.Data, attempts, cause); err != nil {
			log.Error().Err(err).Msg("Failed to record dead letter")
		} else {
			stored++
		}
	}
	// Keep the message when no sink took it; it reappears after the visibility timeout.
	if sinks > 0 && stored == 0 {
		log.Warn().Msg("Dead letter not stored; leaving message on the queue")
		return
	}
	if err := w.queue.Delete(ctx, w.cfg.Queue, []int64{msg.ID}); err != nil {
		log.Error().Err(err).Msg("Error deleting message after failure")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
