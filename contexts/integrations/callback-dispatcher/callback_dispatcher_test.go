package callbackdispatcher_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	callbackdispatcher "tally/contexts/integrations/callback-dispatcher"
	"tally/contexts/integrations/callback-dispatcher/adapters/memory"
	"tally/contexts/integrations/callback-dispatcher/adapters/webhook"
	"tally/contexts/integrations/callback-dispatcher/application"
	"tally/contexts/integrations/callback-dispatcher/domain/entities"
	domainerrors "tally/contexts/integrations/callback-dispatcher/domain/errors"
	httptransport "tally/contexts/integrations/callback-dispatcher/transport/http"
	"tally/internal/shared/events"
)

func TestRegisterCallbackValidation(t *testing.T) {
	module := callbackdispatcher.NewInMemoryModule(nil)

	cases := []string{"", "not-a-url", "ftp://example.com/hook", "https://"}
	for _, raw := range cases {
		_, err := module.Handler.RegisterCallbackHandler(context.Background(), httptransport.RegisterCallbackRequest{URL: raw})
		if !errors.Is(err, domainerrors.ErrInvalidURL) {
			t.Fatalf("expected url rejection for %q, got %v", raw, err)
		}
	}

	created, err := module.Handler.RegisterCallbackHandler(context.Background(), httptransport.RegisterCallbackRequest{
		URL: "https://bot.example.com/hook",
	})
	if err != nil {
		t.Fatalf("register should succeed: %v", err)
	}
	if created.CallbackID == "" || created.URL != "https://bot.example.com/hook" {
		t.Fatalf("unexpected callback: %+v", created)
	}

	_, err = module.Handler.RegisterCallbackHandler(context.Background(), httptransport.RegisterCallbackRequest{
		URL: "https://bot.example.com/hook",
	})
	if !errors.Is(err, domainerrors.ErrDuplicate) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	if err := module.Handler.DeleteCallbackHandler(context.Background(), created.CallbackID); err != nil {
		t.Fatalf("delete should succeed: %v", err)
	}
	err = module.Handler.DeleteCallbackHandler(context.Background(), created.CallbackID)
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected missing callback rejection, got %v", err)
	}
}

type delivery struct {
	Batch events.Batch
	Auth  string
}

func TestDispatcherDeliversBatchWithSecret(t *testing.T) {
	received := make(chan delivery, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch events.Batch
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("batch decode failed: %v", err)
		}
		select {
		case received <- delivery{Batch: batch, Auth: r.Header.Get("Authorization")}:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := memory.NewStore()
	secret := "hook-secret"
	if err := store.CreateCallback(context.Background(), entities.Callback{
		CallbackID: "cb-1",
		URL:        server.URL,
		Secret:     &secret,
	}); err != nil {
		t.Fatalf("seed callback failed: %v", err)
	}

	dispatcher := application.NewDispatcher(store, webhook.NewPoster(time.Second), store, nil, application.DispatcherConfig{
		BatchSize:     2,
		FlushInterval: 50 * time.Millisecond,
		MaxAttempts:   1,
		RetryBackoff:  time.Millisecond,
	})
	dispatcher.Publish("refund_created", map[string]any{"id": "ballot-1"})
	dispatcher.Publish("refund_updated", map[string]any{"id": "ballot-1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dispatcher.Run(ctx) }()

	select {
	case got := <-received:
		if got.Batch.Number != 2 || len(got.Batch.Events) != 2 {
			t.Fatalf("unexpected batch: %+v", got.Batch)
		}
		if got.Batch.Events[0].Event != "refund_created" || got.Batch.Events[1].Event != "refund_updated" {
			t.Fatalf("expected publish order preserved, got %+v", got.Batch.Events)
		}
		if got.Auth != "Bearer hook-secret" {
			t.Fatalf("expected bearer secret header, got %q", got.Auth)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("batch was not delivered")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestDispatcherRetriesFailedDelivery(t *testing.T) {
	var attempts atomic.Int32
	received := make(chan events.Batch, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var batch events.Batch
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("batch decode failed: %v", err)
		}
		select {
		case received <- batch:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := memory.NewStore()
	if err := store.CreateCallback(context.Background(), entities.Callback{CallbackID: "cb-1", URL: server.URL}); err != nil {
		t.Fatalf("seed callback failed: %v", err)
	}

	dispatcher := application.NewDispatcher(store, webhook.NewPoster(time.Second), store, nil, application.DispatcherConfig{
		BatchSize:     1,
		FlushInterval: 50 * time.Millisecond,
		MaxAttempts:   3,
		RetryBackoff:  time.Millisecond,
	})
	dispatcher.Publish("transaction_created", map[string]any{"id": "txn-1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = dispatcher.Run(ctx) }()

	select {
	case batch := <-received:
		if batch.Number != 1 {
			t.Fatalf("expected single event batch, got %+v", batch)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("batch was not delivered after retry")
	}
	if got := attempts.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestDispatcherKeepsPublishOrderAcrossBatches(t *testing.T) {
	received := make(chan events.Batch, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch events.Batch
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("batch decode failed: %v", err)
		}
		received <- batch
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := memory.NewStore()
	if err := store.CreateCallback(context.Background(), entities.Callback{CallbackID: "cb-1", URL: server.URL}); err != nil {
		t.Fatalf("seed callback failed: %v", err)
	}

	dispatcher := application.NewDispatcher(store, webhook.NewPoster(time.Second), store, nil, application.DispatcherConfig{
		BatchSize:     2,
		FlushInterval: 20 * time.Millisecond,
		MaxAttempts:   1,
		RetryBackoff:  time.Millisecond,
	})
	ids := []string{"event-0", "event-1", "event-2", "event-3", "event-4"}
	for _, id := range ids {
		dispatcher.Publish("transaction_created", map[string]any{"id": id})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = dispatcher.Run(ctx) }()

	// Events carry strictly increasing sequence numbers internally, so the
	// concatenation of delivered batches must reproduce the publish order
	// exactly, with no duplicates and no gaps.
	var delivered []string
	deadline := time.After(2 * time.Second)
	for len(delivered) < len(ids) {
		select {
		case batch := <-received:
			if batch.Number != len(batch.Events) {
				t.Fatalf("batch number %d does not match %d events", batch.Number, len(batch.Events))
			}
			for _, event := range batch.Events {
				delivered = append(delivered, event.Data["id"].(string))
			}
		case <-deadline:
			t.Fatalf("expected %d events, got %d: %v", len(ids), len(delivered), delivered)
		}
	}
	for i, id := range ids {
		if delivered[i] != id {
			t.Fatalf("publish order broken at %d: got %v", i, delivered)
		}
	}
}

func TestDispatcherBufferDropsOldestUnderPressure(t *testing.T) {
	received := make(chan events.Batch, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch events.Batch
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("batch decode failed: %v", err)
		}
		select {
		case received <- batch:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := memory.NewStore()
	if err := store.CreateCallback(context.Background(), entities.Callback{CallbackID: "cb-1", URL: server.URL}); err != nil {
		t.Fatalf("seed callback failed: %v", err)
	}

	dispatcher := application.NewDispatcher(store, webhook.NewPoster(time.Second), store, nil, application.DispatcherConfig{
		BatchSize:      16,
		FlushInterval:  20 * time.Millisecond,
		MaxAttempts:    1,
		RetryBackoff:   time.Millisecond,
		BufferCapacity: 2,
	})
	dispatcher.Publish("user_created", map[string]any{"id": "user-0"})
	dispatcher.Publish("user_updated", map[string]any{"id": "user-1"})
	dispatcher.Publish("user_updated", map[string]any{"id": "user-2"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = dispatcher.Run(ctx) }()

	select {
	case batch := <-received:
		if batch.Number != 2 {
			t.Fatalf("expected the oldest event to be dropped, got %+v", batch)
		}
		if batch.Events[0].Data["id"] != "user-1" || batch.Events[1].Data["id"] != "user-2" {
			t.Fatalf("expected the two newest events, got %+v", batch.Events)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("batch was not delivered")
	}
}
