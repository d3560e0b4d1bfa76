package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tally/contexts/integrations/callback-dispatcher/domain/entities"
	"tally/contexts/integrations/callback-dispatcher/ports"
	"tally/internal/shared/events"
)

// DispatcherConfig tunes buffering and delivery.
type DispatcherConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	MaxAttempts    int
	RetryBackoff   time.Duration
	BufferCapacity int
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 16
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 500 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 250 * time.Millisecond
	}
	if c.BufferCapacity <= 0 {
		c.BufferCapacity = 1024
	}
	return c
}

type sequencedEvent struct {
	Sequence int64
	Event    events.Event
}

// Dispatcher buffers published events and pushes them to every registered
// endpoint. Publish never blocks and never surfaces an error to the
// producing operation; the buffer is bounded and drops its oldest entries
// under pressure.
type Dispatcher struct {
	callbacks ports.CallbackRepository
	poster    ports.Poster
	clock     ports.Clock
	logger    *slog.Logger
	config    DispatcherConfig

	mu           sync.Mutex
	buffer       []sequencedEvent
	nextSequence int64
	wake         chan struct{}
}

func NewDispatcher(
	callbacks ports.CallbackRepository,
	poster ports.Poster,
	clock ports.Clock,
	logger *slog.Logger,
	config DispatcherConfig,
) *Dispatcher {
	return &Dispatcher{
		callbacks: callbacks,
		poster:    poster,
		clock:     clock,
		logger:    ResolveLogger(logger),
		config:    config.withDefaults(),
		wake:      make(chan struct{}, 1),
	}
}

// Publish appends one event to the buffer. Safe for concurrent use.
func (d *Dispatcher) Publish(eventType string, data map[string]any) {
	event := events.Event{
		Event:     eventType,
		Timestamp: d.now().Unix(),
		Data:      data,
	}

	d.mu.Lock()
	sequence := d.nextSequence
	d.nextSequence++
	d.buffer = append(d.buffer, sequencedEvent{Sequence: sequence, Event: event})
	dropped := len(d.buffer) - d.config.BufferCapacity
	if dropped > 0 {
		d.buffer = append([]sequencedEvent(nil), d.buffer[dropped:]...)
	}
	reachedBatch := len(d.buffer) >= d.config.BatchSize
	d.mu.Unlock()

	if dropped > 0 {
		d.logger.Warn("event buffer overflow, oldest events dropped",
			"event", "dispatcher_buffer_overflow",
			"module", "integrations/callback-dispatcher",
			"layer", "application",
			"dropped", dropped,
		)
	}
	if reachedBatch {
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
}

// Run delivers batches until the context is cancelled. A flush happens when
// the buffer reaches the batch size or the debounce window elapses.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("callback dispatcher started",
		"event", "dispatcher_started",
		"module", "integrations/callback-dispatcher",
		"layer", "application",
		"batch_size", d.config.BatchSize,
		"flush_interval", d.config.FlushInterval.String(),
	)
	ticker := time.NewTicker(d.config.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("callback dispatcher stopped",
				"event", "dispatcher_stopped",
				"module", "integrations/callback-dispatcher",
				"layer", "application",
			)
			return ctx.Err()
		case <-ticker.C:
			d.flush(ctx)
		case <-d.wake:
			d.flush(ctx)
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	d.mu.Lock()
	if len(d.buffer) == 0 {
		d.mu.Unlock()
		return
	}
	pending := d.buffer
	d.buffer = nil
	d.mu.Unlock()

	batch := events.Batch{
		Number: len(pending),
		Events: make([]events.Event, 0, len(pending)),
	}
	firstSequence := pending[0].Sequence
	for _, item := range pending {
		batch.Events = append(batch.Events, item.Event)
	}

	targets, err := d.callbacks.ListCallbacks(ctx)
	if err != nil {
		d.logger.Error("callback listing failed, batch dropped",
			"event", "dispatcher_list_failed",
			"module", "integrations/callback-dispatcher",
			"layer", "application",
			"error", err.Error(),
			"batch_size", batch.Number,
		)
		return
	}
	if len(targets) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target entities.Callback) {
			defer wg.Done()
			d.deliver(ctx, target, batch, firstSequence)
		}(target)
	}
	wg.Wait()
}

func (d *Dispatcher) deliver(
	ctx context.Context,
	target entities.Callback,
	batch events.Batch,
	firstSequence int64,
) {
	var lastErr error
	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		if lastErr = d.poster.Deliver(ctx, target, batch); lastErr == nil {
			d.logger.Info("callback batch delivered",
				"event", "dispatcher_batch_delivered",
				"module", "integrations/callback-dispatcher",
				"layer", "application",
				"callback_id", target.CallbackID,
				"batch_size", batch.Number,
				"first_sequence", firstSequence,
				"attempt", attempt,
			)
			return
		}
		if attempt == d.config.MaxAttempts {
			break
		}
		backoff := d.config.RetryBackoff << (attempt - 1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
	d.logger.Warn("callback batch dropped after retries",
		"event", "dispatcher_batch_dropped",
		"module", "integrations/callback-dispatcher",
		"layer", "application",
		"callback_id", target.CallbackID,
		"url", target.URL,
		"batch_size", batch.Number,
		"first_sequence", firstSequence,
		"attempts", d.config.MaxAttempts,
		"error", lastErr.Error(),
	)
}

func (d *Dispatcher) now() time.Time {
	if d.clock != nil {
		return d.clock.Now().UTC()
	}
	return time.Now().UTC()
}
