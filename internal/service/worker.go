package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/anderka/support-relay/internal/model"
	"github.com/anderka/support-relay/internal/ratelimit"
	"github.com/anderka/support-relay/internal/ticket"
)

// MessageStore is the slice of the repository the worker drains.
type MessageStore interface {
	FetchPendingOutbound(ctx context.Context, limit int) ([]model.Message, error)
	MarkDelivered(ctx context.Context, id int64) error
}

// DeliveryAdapter sends one piece of content to a conversation and
// classifies the platform's answer.
type DeliveryAdapter interface {
	Send(ctx context.Context, chatID int64, content model.Content) model.SendResult
}

type TopicResolver interface {
	Resolve(ctx context.Context, chatID int64) string
}

// Worker drains queued operator replies to their conversations. One
// cycle per scheduler tick, guarded by the gate: cycles never overlap
// and never start inside a cooldown window.
type Worker struct {
	store     MessageStore
	adapter   DeliveryAdapter
	gate      *ratelimit.Gate
	topics    TopicResolver
	logger    *slog.Logger
	batchSize int
	pacing    time.Duration

	onDelivered func(ctx context.Context, msg model.Message, remoteMessageID int)
	onDropped   func(ctx context.Context, msg model.Message, topic string, res model.SendResult)
}

func NewWorker(store MessageStore, adapter DeliveryAdapter, gate *ratelimit.Gate, batchSize int, pacing time.Duration, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:     store,
		adapter:   adapter,
		gate:      gate,
		logger:    logger,
		batchSize: batchSize,
		pacing:    pacing,
	}
}

// WithHooks installs best-effort side effects: onDelivered after a
// confirmed send, onDropped after a permanent failure is discarded.
// Neither affects the delivered-flag semantics.
func (w *Worker) WithHooks(
	onDelivered func(ctx context.Context, msg model.Message, remoteMessageID int),
	onDropped func(ctx context.Context, msg model.Message, topic string, res model.SendResult),
) *Worker {
	w.onDelivered = onDelivered
	w.onDropped = onDropped
	return w
}

func (w *Worker) WithTopics(topics TopicResolver) *Worker {
	w.topics = topics
	return w
}

// RunCycle performs one dispatch pass. Messages are attempted strictly
// in creation order; a rate-limit signal defers the remainder of the
// batch to a later cycle without reordering or skipping.
func (w *Worker) RunCycle(ctx context.Context) {
	if !w.gate.TryStart() {
		return
	}
	defer w.gate.Finish()

	msgs, err := w.store.FetchPendingOutbound(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("fetch pending failed", "err", err)
		return
	}
	if len(msgs) == 0 {
		return
	}

	for i, m := range msgs {
		content, ok := m.Content()
		if !ok {
			// Malformed row: mark it delivered so it cannot block
			// the queue forever.
			w.markDelivered(ctx, m.ID)
			w.logger.Warn("empty message skipped", "id", m.ID, "chat_id", m.ChatID)
			continue
		}

		if w.gate.CoolingDown() {
			// A window opened earlier in this cycle is known and
			// bounded: wait it out instead of aborting.
			if err := w.gate.ConsumeCooldown(ctx); err != nil {
				return
			}
		}

		res := w.adapter.Send(ctx, m.ChatID, content)
		switch res.Outcome {
		case model.OutcomeDelivered:
			w.markDelivered(ctx, m.ID)
			w.logger.Info("message delivered",
				"id", m.ID, "chat_id", m.ChatID, "remote_id", res.RemoteMessageID)
			if w.onDelivered != nil {
				w.onDelivered(ctx, m, res.RemoteMessageID)
			}
			if i < len(msgs)-1 && w.pacing > 0 {
				if err := sleep(ctx, w.pacing); err != nil {
					return
				}
			}

		case model.OutcomeRateLimited:
			// Remainder of the batch stays pending in order.
			w.gate.RecordRateLimit(res.RetryAfter)
			w.logger.Warn("rate limited, deferring batch",
				"id", m.ID, "retry_after", res.RetryAfter, "deferred", len(msgs)-i)
			return

		case model.OutcomeBlocked, model.OutcomeRejected:
			// Terminal: drop the message so the queue stays live.
			// This is deliberate data loss and gets its own event
			// class in logs and hooks.
			w.markDelivered(ctx, m.ID)
			topic := ticket.DefaultTopic
			if w.topics != nil {
				topic = w.topics.Resolve(ctx, m.ChatID)
			}
			w.logger.Error("message dropped",
				"id", m.ID, "chat_id", m.ChatID,
				"outcome", res.Outcome.String(), "topic", topic, "err", res.Err)
			if w.onDropped != nil {
				w.onDropped(ctx, m, topic, res)
			}

		default:
			// Transient: stays pending, later messages still get
			// their attempt this cycle.
			w.logger.Warn("transient send failure, will retry",
				"id", m.ID, "chat_id", m.ChatID, "err", res.Err)
		}
	}
}

func (w *Worker) markDelivered(ctx context.Context, id int64) {
	if err := w.store.MarkDelivered(ctx, id); err != nil {
		w.logger.Error("mark delivered failed", "id", id, "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
