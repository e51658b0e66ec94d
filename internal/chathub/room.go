package chathub

import (
	"context"
	"coursechat/backend/internal/storage"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ChannelState tracks the channel-id cache of a Room.
type ChannelState int

const (
	// ChannelUnresolved: nothing cached yet, or the last lookup failed transiently.
	ChannelUnresolved ChannelState = iota
	// ChannelResolving: a store lookup is in flight.
	ChannelResolving
	// ChannelCached: the channel id is known for the rest of the room's life.
	ChannelCached
	// ChannelNotFound: the topic has no channel; persistence is skipped
	// until the room is recreated.
	ChannelNotFound
)

func (s ChannelState) String() string {
	switch s {
	case ChannelResolving:
		return "resolving"
	case ChannelCached:
		return "cached"
	case ChannelNotFound:
		return "not_found"
	default:
		return "unresolved"
	}
}

// Room is the broadcast group of one topic. It is created by the hub on the
// first connection and dropped, together with its channel cache, when the
// last member leaves.
type Room struct {
	Topic string

	// members is guarded by the hub's registry lock.
	members map[string]Client

	mu        sync.Mutex
	state     ChannelState
	channelID string
	lookups   singleflight.Group
}

// NewRoom creates an empty room for topic.
func NewRoom(topic string) *Room {
	return &Room{
		Topic:   topic,
		members: make(map[string]Client),
	}
}

func (r *Room) join(c Client) {
	r.members[c.GetID()] = c
}

// leave reports whether c was a member.
func (r *Room) leave(c Client) bool {
	if _, ok := r.members[c.GetID()]; !ok {
		return false
	}
	delete(r.members, c.GetID())
	return true
}

func (r *Room) has(id string) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Room) size() int {
	return len(r.members)
}

// ChannelState returns the current state of the channel cache.
func (r *Room) ChannelState() ChannelState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// cached returns the cached id when the state is terminal.
func (r *Room) cached() (string, ChannelState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channelID, r.state
}

// resolveChannel returns the channel id of the room, querying the store at
// most once per room. Concurrent first callers share one lookup.
func (r *Room) resolveChannel(ctx context.Context, s storage.Storage) (string, error) {
	if id, state := r.cached(); state == ChannelCached {
		return id, nil
	} else if state == ChannelNotFound {
		return "", storage.ErrChannelNotFound
	}

	v, err, _ := r.lookups.Do("channel", func() (any, error) {
		// A lookup that finished between the check above and Do already
		// settled the state.
		id, state := r.cached()
		switch state {
		case ChannelCached:
			return id, nil
		case ChannelNotFound:
			return "", storage.ErrChannelNotFound
		}

		r.setState(ChannelResolving, "")
		channel, err := s.FindChannelByTopic(ctx, r.Topic)
		switch {
		case err == nil:
			r.setState(ChannelCached, channel.ID)
			return channel.ID, nil
		case errors.Is(err, storage.ErrChannelNotFound):
			r.setState(ChannelNotFound, "")
			return "", err
		default:
			r.setState(ChannelUnresolved, "")
			return "", err
		}
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Room) setState(state ChannelState, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.channelID = channelID
}
