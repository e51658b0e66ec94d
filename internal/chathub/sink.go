package chathub

import (
	"context"
	"coursechat/backend/internal/models"
	"coursechat/backend/internal/storage"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformedPayload means the frame is not a JSON object of the expected shape.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidPayload means the frame decoded but misses required fields.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Result is the outcome of one persistence attempt: either Record or Err is set.
type Result struct {
	Topic  string
	Record *models.ChatMessage
	Err    error
}

// OK reports whether the message was stored.
func (r Result) OK() bool { return r.Err == nil }

// PersistenceSink durably records relayed frames against the channel of
// their room. It runs apart from the broadcast path.
type PersistenceSink struct {
	store    storage.Storage
	validate *validator.Validate
	observer Observer
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewPersistenceSink creates a sink. timeout bounds each attempt.
func NewPersistenceSink(s storage.Storage, observer Observer, timeout time.Duration) *PersistenceSink {
	return &PersistenceSink{
		store:    s,
		validate: validator.New(),
		observer: observer,
		timeout:  timeout,
	}
}

// Submit persists payload in the background and returns immediately.
// The Result is handed to the observer.
func (p *PersistenceSink) Submit(ctx context.Context, room *Room, payload []byte) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// The attempt outlives a cancelled hub context so in-flight messages
		// are still written during shutdown.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		result := p.Persist(ctx, room, payload)
		if p.observer != nil {
			p.observer.Observe(result)
		}
	}()
}

// Wait blocks until every submitted attempt has finished.
func (p *PersistenceSink) Wait() {
	p.wg.Wait()
}

// Persist parses payload, resolves the room's channel and stores one record.
func (p *PersistenceSink) Persist(ctx context.Context, room *Room, payload []byte) Result {
	result := Result{Topic: room.Topic}

	var in models.InboundPayload
	if err := json.Unmarshal(payload, &in); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		return result
	}
	if err := p.validate.Struct(in); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		return result
	}

	channelID, err := room.resolveChannel(ctx, p.store)
	if err != nil {
		result.Err = err
		return result
	}

	record := &models.ChatMessage{
		ChannelID: channelID,
		UserID:    in.UserID,
		Sender:    in.Sender,
		Content:   in.Message,
		CreatedAt: time.UnixMilli(in.Timestamp),
	}
	if in.ImageURL != "" {
		imageURL := in.ImageURL
		record.ImageURL = &imageURL
	}

	if err := p.store.SaveMessage(ctx, record); err != nil {
		result.Err = fmt.Errorf("save message: %w", err)
		return result
	}

	result.Record = record
	return result
}
