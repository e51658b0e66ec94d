package chathub_test

import (
	"sync"
	"testing"
	"time"
)

type MockClient struct {
	id     string
	roomID string
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func newMockClient(id, roomID string) *MockClient {
	return &MockClient{
		id:     id,
		roomID: roomID,
		send:   make(chan []byte, 10),
	}
}

func (c *MockClient) GetID() string                 { return c.id }
func (c *MockClient) GetRoomID() string             { return c.roomID }
func (c *MockClient) GetSendChannel() chan<- []byte { return c.send }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// expectFrame waits for the next frame queued to c.
func (c *MockClient) expectFrame(t *testing.T) string {
	t.Helper()
	select {
	case frame := <-c.send:
		return string(frame)
	case <-time.After(time.Second):
		t.Fatalf("client %s did not receive a frame", c.id)
		return ""
	}
}

// expectNoFrame asserts that nothing is queued to c for a short while.
func (c *MockClient) expectNoFrame(t *testing.T) {
	t.Helper()
	select {
	case frame := <-c.send:
		t.Fatalf("client %s received unexpected frame %q", c.id, frame)
	case <-time.After(100 * time.Millisecond):
	}
}
