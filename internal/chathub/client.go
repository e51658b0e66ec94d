package chathub

// Client is the interface for one network participant of a room.
// It abstracts the underlying transport, so the hub can manage WebSocket
// connections and test doubles uniformly.
type Client interface {
	// GetID returns the unique connection id.
	GetID() string
	// GetRoomID returns the topic of the room the client joined. It never
	// changes during the client's lifetime.
	GetRoomID() string

	// GetSendChannel returns the queue of outbound text frames. The hub writes
	// to it without blocking and drops the client when it is full.
	GetSendChannel() chan<- []byte

	// Run starts the client's read and write pumps.
	Run()
	// Close closes the send queue, which shuts the connection down.
	// The hub calls it exactly once, when the client leaves its room.
	Close()
}
