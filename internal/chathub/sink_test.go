package chathub_test

import (
	"context"
	"coursechat/backend/internal/chathub"
	"coursechat/backend/internal/models"
	"coursechat/backend/internal/storage"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSink_PersistStoresRecord(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("FindChannelByTopic", mock.Anything, "course-42").
		Return(&models.Channel{ID: "chan-42", Topic: "course-42"}, nil)
	storageMock.On("SaveMessage", mock.Anything, mock.AnythingOfType("*models.ChatMessage")).Return(nil)

	sink := chathub.NewPersistenceSink(storageMock, nil, time.Second)
	room := chathub.NewRoom("course-42")

	payload := `{"userId":"u1","sender":"Alice","message":"","timestamp":1700000000000,"imageUrl":"https://cdn.example/a.png"}`
	result := sink.Persist(context.Background(), room, []byte(payload))

	require.True(t, result.OK(), "unexpected error: %v", result.Err)
	assert.Equal(t, "course-42", result.Topic)
	assert.Equal(t, "chan-42", result.Record.ChannelID)
	require.NotNil(t, result.Record.ImageURL)
	assert.Equal(t, "https://cdn.example/a.png", *result.Record.ImageURL)
	assert.Equal(t, time.UnixMilli(1700000000000), result.Record.CreatedAt)
	assert.Equal(t, chathub.ChannelCached, room.ChannelState())
}

func TestSink_PersistRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "Not JSON", payload: "hello", wantErr: chathub.ErrMalformedPayload},
		{name: "JSON array", payload: `["hi"]`, wantErr: chathub.ErrMalformedPayload},
		{name: "Wrong timestamp type", payload: `{"userId":"u1","sender":"A","message":"hi","timestamp":"now"}`, wantErr: chathub.ErrMalformedPayload},
		{name: "Missing sender", payload: `{"userId":"u1","message":"hi","timestamp":1000}`, wantErr: chathub.ErrInvalidPayload},
		{name: "Empty message", payload: `{"userId":"u1","sender":"A","timestamp":1000}`, wantErr: chathub.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storageMock := new(MockStorage)
			sink := chathub.NewPersistenceSink(storageMock, nil, time.Second)
			room := chathub.NewRoom("course-42")

			result := sink.Persist(context.Background(), room, []byte(tt.payload))

			assert.ErrorIs(t, result.Err, tt.wantErr)
			assert.Nil(t, result.Record)
			assert.Equal(t, chathub.ChannelUnresolved, room.ChannelState())
			storageMock.AssertNotCalled(t, "FindChannelByTopic", mock.Anything, mock.Anything)
		})
	}
}

func TestSink_NotFoundIsTerminalForRoom(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("FindChannelByTopic", mock.Anything, "course-42").Return(nil, storage.ErrChannelNotFound)

	sink := chathub.NewPersistenceSink(storageMock, nil, time.Second)
	room := chathub.NewRoom("course-42")

	for i := 0; i < 3; i++ {
		result := sink.Persist(context.Background(), room, []byte(aliceFrame))
		assert.ErrorIs(t, result.Err, storage.ErrChannelNotFound)
	}

	assert.Equal(t, chathub.ChannelNotFound, room.ChannelState())
	storageMock.AssertNumberOfCalls(t, "FindChannelByTopic", 1)
	storageMock.AssertNotCalled(t, "SaveMessage", mock.Anything, mock.Anything)
}

func TestSink_TransientErrorLeavesRoomUnresolved(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("FindChannelByTopic", mock.Anything, "course-42").Return(nil, errors.New("connection reset"))

	sink := chathub.NewPersistenceSink(storageMock, nil, time.Second)
	room := chathub.NewRoom("course-42")

	result := sink.Persist(context.Background(), room, []byte(aliceFrame))

	assert.Error(t, result.Err)
	assert.NotErrorIs(t, result.Err, storage.ErrChannelNotFound)
	assert.Equal(t, chathub.ChannelUnresolved, room.ChannelState())
}

func TestSink_SubmitReportsToObserver(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("FindChannelByTopic", mock.Anything, "course-42").
		Return(&models.Channel{ID: "chan-42", Topic: "course-42"}, nil)
	storageMock.On("SaveMessage", mock.Anything, mock.AnythingOfType("*models.ChatMessage")).Return(nil)

	results := make(chan chathub.Result, 1)
	sink := chathub.NewPersistenceSink(storageMock, chathub.ObserverFunc(func(r chathub.Result) { results <- r }), time.Second)

	// A cancelled caller context does not abort the write.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Submit(ctx, chathub.NewRoom("course-42"), []byte(aliceFrame))
	sink.Wait()

	result := <-results
	assert.True(t, result.OK())
	assert.Equal(t, "Alice", result.Record.Sender)
}

func TestLogObserver_CountsOutcomes(t *testing.T) {
	stats := &chathub.Stats{}
	observer := chathub.NewLogObserver(stats)

	observer.Observe(chathub.Result{Topic: "course-42", Record: &models.ChatMessage{}})
	observer.Observe(chathub.Result{Topic: "course-42", Err: storage.ErrChannelNotFound})
	observer.Observe(chathub.Result{Topic: "course-42", Err: chathub.ErrMalformedPayload})
	observer.Observe(chathub.Result{Topic: "course-42", Err: errors.New("disk full")})

	assert.Equal(t, uint64(1), stats.Persisted)
	assert.Equal(t, uint64(1), stats.MissingChannel)
	assert.Equal(t, uint64(1), stats.InvalidPayloads)
	assert.Equal(t, uint64(1), stats.StoreFailures)
}
