package chathub

import (
	"context"
	"coursechat/backend/internal/models"
	"coursechat/backend/internal/storage"
	"errors"
	"log"
	"sync/atomic"
)

// StartPubSubListener підписується на кімнати в Redis, щоб кадри з інших
// інстансів доходили до локальних учасників. Without Redis the hub stays
// single-instance.
func (m *ManagerService) StartPubSubListener(ctx context.Context) {
	frames, err := m.Storage.SubscribeRooms(ctx)
	if errors.Is(err, storage.ErrPubSubDisabled) {
		log.Println("INFO: Redis not configured, relay runs single-instance")
		return
	}
	if err != nil {
		log.Printf("WARNING: Cross-instance relay disabled: %v", err)
		return
	}
	m.crossInstance = true

	go func() {
		for envelope := range frames {
			// Own frames come back from Redis too; they were delivered already.
			if envelope.Origin == m.InstanceID {
				continue
			}
			select {
			case m.pubSubCh <- envelope:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// publish sends a locally relayed frame to the other instances.
func (m *ManagerService) publish(ctx context.Context, envelope models.RelayEnvelope) {
	go func() {
		if err := m.Storage.PublishFrame(ctx, envelope); err != nil {
			log.Printf("ERROR: Failed to publish frame for room %s: %v", envelope.Topic, err)
		}
	}()
}

// deliverRemote hands a frame relayed by another instance to every local
// member of its room. The origin instance persists it, so this one does not.
func (m *ManagerService) deliverRemote(envelope models.RelayEnvelope) {
	m.mu.RLock()
	room, ok := m.rooms[envelope.Topic]
	m.mu.RUnlock()
	if !ok {
		return
	}

	m.broadcast(room, []byte(envelope.Payload), "")
	atomic.AddUint64(&m.stats.RemoteFrames, 1)
}
