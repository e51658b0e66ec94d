package chathub

import (
	"context"
	"coursechat/backend/internal/config"
	"coursechat/backend/internal/models"
	"coursechat/backend/internal/storage"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const defaultPersistTimeout = 10 * time.Second

// Inbound is one text frame read from a client.
type Inbound struct {
	Client  Client
	Payload []byte
}

// ManagerService is the relay hub. A single goroutine (Run) owns room
// membership and serves connects, disconnects and inbound frames in order;
// persistence and Redis publishing run beside it and never block it.
type ManagerService struct {
	// InstanceID distinguishes this relay from its peers on Redis.
	InstanceID string

	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan Inbound

	Storage storage.Storage
	Sink    *PersistenceSink

	mu    sync.RWMutex
	rooms map[string]*Room

	pubSubCh      chan models.RelayEnvelope
	crossInstance bool
	stats         *Stats
	done          chan struct{}
}

// NewManagerService creates a hub whose persistence results are logged and counted.
func NewManagerService(s storage.Storage) *ManagerService {
	stats := &Stats{}
	return &ManagerService{
		InstanceID:   uuid.New().String(),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan Inbound),
		Storage:      s,
		Sink:         NewPersistenceSink(s, NewLogObserver(stats), defaultPersistTimeout),
		rooms:        make(map[string]*Room),
		pubSubCh:     make(chan models.RelayEnvelope),
		stats:        stats,
		done:         make(chan struct{}),
	}
}

// SetObserver adds an observer of persistence results next to the default logger.
// It must be called before Run.
func (m *ManagerService) SetObserver(o Observer) {
	m.Sink.observer = MultiObserver{NewLogObserver(m.stats), o}
}

// SetPersistTimeout bounds each persistence attempt. It must be called before Run.
func (m *ManagerService) SetPersistTimeout(d time.Duration) {
	m.Sink.timeout = d
}

// Run serves the hub until ctx is cancelled. On return every client has been
// closed and in-flight persistence has finished.
func (m *ManagerService) Run(ctx context.Context) {
	m.StartPubSubListener(ctx)
	log.Printf("INFO: Relay hub %s started", m.InstanceID)

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			m.Sink.Wait()
			close(m.done)
			log.Println("INFO: Relay hub stopped")
			return
		case client := <-m.RegisterCh:
			m.register(client)
		case client := <-m.UnregisterCh:
			m.unregister(client)
		case in := <-m.IncomingCh:
			m.relay(ctx, in)
		case envelope := <-m.pubSubCh:
			m.deliverRemote(envelope)
		}
	}
}

// Wait blocks until Run has returned.
func (m *ManagerService) Wait() {
	<-m.done
}

// Register hands a new client to the hub. It returns false once the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes a client from its room. Unknown clients are ignored.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Submit queues an inbound frame for relaying.
func (m *ManagerService) Submit(in Inbound) bool {
	select {
	case m.IncomingCh <- in:
		return true
	case <-m.done:
		return false
	}
}

func (m *ManagerService) register(c Client) {
	m.mu.Lock()
	room, ok := m.rooms[c.GetRoomID()]
	if !ok {
		room = NewRoom(c.GetRoomID())
		m.rooms[room.Topic] = room
		log.Printf("INFO: Room %s opened", room.Topic)
	}
	room.join(c)
	m.mu.Unlock()

	// Greeting goes to the new connection only; no history is replayed.
	m.send(room, c, []byte(config.GreetingFrame))
}

func (m *ManagerService) unregister(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(c)
}

// removeLocked drops c from its room and closes it. Callers hold m.mu.
func (m *ManagerService) removeLocked(c Client) {
	room, ok := m.rooms[c.GetRoomID()]
	if !ok || !room.leave(c) {
		return
	}
	c.Close()

	if room.size() == 0 {
		delete(m.rooms, room.Topic)
		log.Printf("INFO: Room %s closed", room.Topic)
	}
}

// relay fans a frame out to the other members of the sender's room and then
// hands it to the persistence sink.
func (m *ManagerService) relay(ctx context.Context, in Inbound) {
	m.mu.RLock()
	room, ok := m.rooms[in.Client.GetRoomID()]
	member := ok && room.has(in.Client.GetID())
	m.mu.RUnlock()
	if !member {
		log.Printf("WARNING: Frame from unregistered client %s dropped", in.Client.GetID())
		return
	}

	m.broadcast(room, in.Payload, in.Client.GetID())
	atomic.AddUint64(&m.stats.FramesRelayed, 1)

	if m.crossInstance {
		m.publish(ctx, models.RelayEnvelope{
			Origin:  m.InstanceID,
			Topic:   room.Topic,
			Payload: string(in.Payload),
		})
	}

	m.Sink.Submit(ctx, room, in.Payload)
}

// broadcast sends payload to every member except the one with id exclude.
func (m *ManagerService) broadcast(room *Room, payload []byte, exclude string) {
	m.mu.RLock()
	members := lo.Values(room.members)
	m.mu.RUnlock()

	for _, c := range members {
		if c.GetID() == exclude {
			continue
		}
		m.send(room, c, payload)
	}
}

// send queues a frame without blocking. A client whose queue is full is
// removed from the room, as it can no longer keep up.
func (m *ManagerService) send(room *Room, c Client, payload []byte) {
	select {
	case c.GetSendChannel() <- payload:
	default:
		atomic.AddUint64(&m.stats.FramesDropped, 1)
		log.Printf("WARNING: Client %s in room %s is too slow, disconnecting", c.GetID(), room.Topic)
		m.mu.Lock()
		m.removeLocked(c)
		m.mu.Unlock()
	}
}

// HasRoom reports whether a room is currently open for topic.
func (m *ManagerService) HasRoom(topic string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[topic]
	return ok
}

// RoomCount returns the number of open rooms.
func (m *ManagerService) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// RoomTopics returns the topics of the open rooms.
func (m *ManagerService) RoomTopics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Keys(m.rooms)
}

// MemberCount returns the number of connections in the room of topic.
func (m *ManagerService) MemberCount(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if room, ok := m.rooms[topic]; ok {
		return room.size()
	}
	return 0
}

// Stats returns a snapshot of the hub counters.
func (m *ManagerService) Stats() StatsSnapshot {
	snapshot := m.stats.snapshot()

	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot.Rooms = len(m.rooms)
	snapshot.Connections = lo.SumBy(lo.Values(m.rooms), func(r *Room) int { return r.size() })
	return snapshot
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, room := range m.rooms {
		for _, c := range room.members {
			c.Close()
		}
	}
	m.rooms = make(map[string]*Room)
}
