package models

// InboundPayload is the JSON shape clients are expected to send over the
// room socket. The relay forwards frames verbatim; this type is only used
// when a frame is persisted.
type InboundPayload struct {
	UserID    string `json:"userId" validate:"required"`
	Sender    string `json:"sender" validate:"required"`
	Message   string `json:"message" validate:"required_without=ImageURL"`
	Timestamp int64  `json:"timestamp" validate:"required"`
	ImageURL  string `json:"imageUrl,omitempty" validate:"omitempty,max=2048"`
}

// RelayEnvelope wraps a raw frame for fan-out between relay instances
// over Redis Pub/Sub.
type RelayEnvelope struct {
	// Origin is the instance id of the relay that received the frame.
	Origin string `json:"origin"`
	// Topic is the room the frame was sent in.
	Topic string `json:"topic"`
	// Payload is the frame exactly as the sender wrote it.
	Payload string `json:"payload"`
}
