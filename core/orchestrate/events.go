package orchestrate

import (
	"context"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
)

// EventType defines the possible event types emitted during a run.
type EventType string

const (
	RunStart            EventType = "run:start"
	RunComplete         EventType = "run:complete"
	VersionApplyStart   EventType = "version:apply:start"
	VersionApplySuccess EventType = "version:apply:success"
	VersionApplyFailed  EventType = "version:apply:failed"
	VersionSkipped      EventType = "version:skipped"
)

// Event is one observable moment of an orchestration run.
type Event struct {
	Type       EventType `json:"type"`
	RunID      string    `json:"runId"`
	Collection string    `json:"collection,omitempty"`
	Version    string    `json:"version,omitempty"`
	Step       string    `json:"step,omitempty"`
	Error      *string   `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventCallbackFunction handles one emitted event.
type EventCallbackFunction func(ctx context.Context, event Event) error

// SubscriptionInfo describes one registered event subscription.
type SubscriptionInfo struct {
	ID          string
	Event       EventType
	Label       *string
	Description *string
	Unsubscribe func()
}

// RegisterSubscriptionOptions configures an event subscription.
type RegisterSubscriptionOptions struct {
	Event       EventType
	Callback    EventCallbackFunction
	Label       *string
	Description *string
}

// emitter owns the typed event bus and the subscription registry.
type emitter struct {
	bus           *events.TypedEventBus[Event]
	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
}

func newEmitter() (*emitter, error) {
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &emitter{
		bus:           bus,
		subscriptions: make(map[string]*SubscriptionInfo),
	}, nil
}

func (e *emitter) emit(event Event) {
	if e == nil || e.bus == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	e.bus.Emit(string(event.Type), event)
}

func (e *emitter) register(options RegisterSubscriptionOptions) string {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	unsubscribe := e.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	e.subscriptions[id] = &SubscriptionInfo{
		ID:          id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	return id
}

func (e *emitter) unregister(id string) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	if info, ok := e.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(e.subscriptions, id)
	}
}
