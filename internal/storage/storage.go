package storage

import (
	"context"
	"coursechat/backend/internal/config"
	"coursechat/backend/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// RoomChannelPrefix prefixes the Redis Pub/Sub channel of every room.
const RoomChannelPrefix = "coursechat:room:"

var (
	// ErrChannelNotFound is returned when no channel is mapped to a room topic.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrChannelExists is returned when a topic already has a channel.
	ErrChannelExists = errors.New("channel already exists for topic")
	// ErrPubSubDisabled is returned by the Pub/Sub methods when Redis is not configured.
	ErrPubSubDisabled = errors.New("redis pub/sub is not configured")
)

type Storage interface {
	FindChannelByTopic(ctx context.Context, topic string) (*models.Channel, error)
	CreateChannel(ctx context.Context, channel *models.Channel) error
	DeleteChannel(ctx context.Context, topic string) error
	ListChannels(ctx context.Context) ([]models.Channel, error)

	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetChannelHistory(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error)

	PublishFrame(ctx context.Context, envelope models.RelayEnvelope) error
	SubscribeRooms(ctx context.Context) (<-chan models.RelayEnvelope, error)

	Ping(ctx context.Context) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil, which disables Pub/Sub.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Open connects to PostgreSQL through the driver selected in cfg.DBDriver
// ("pgx" or "postgres" for lib/pq).
func Open(cfg config.Config) (*gorm.DB, error) {
	dialector := postgres.New(postgres.Config{
		DriverName: cfg.DBDriver,
		DSN:        cfg.DSN(),
	})
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}
	return db, nil
}

// OpenRedis connects to Redis when cfg.RedisAddr is set. It returns a nil
// client in single-instance mode.
func OpenRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect Redis: %w", err)
	}
	return rdb, nil
}

// Migrate creates the channel and message tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Channel{}, &models.ChatMessage{})
}

// FindChannelByTopic повертає канал кімнати або ErrChannelNotFound.
func (s *Service) FindChannelByTopic(ctx context.Context, topic string) (*models.Channel, error) {
	var channel models.Channel

	err := s.DB.WithContext(ctx).Where("topic = ?", topic).First(&channel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to find channel for topic %s: %v", topic, err)
		return nil, err
	}
	return &channel, nil
}

func (s *Service) CreateChannel(ctx context.Context, channel *models.Channel) error {
	err := s.DB.WithContext(ctx).Create(channel).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrChannelExists
	}
	if err != nil {
		log.Printf("ERROR: Failed to create channel for topic %s: %v", channel.Topic, err)
		return err
	}
	return nil
}

// DeleteChannel removes the channel of a topic. Stored messages are kept.
func (s *Service) DeleteChannel(ctx context.Context, topic string) error {
	result := s.DB.WithContext(ctx).Where("topic = ?", topic).Delete(&models.Channel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChannelNotFound
	}
	return nil
}

func (s *Service) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if err := s.DB.WithContext(ctx).Order("topic asc").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// SaveMessage зберігає повідомлення; msg.ID заповнюється GORM.
func (s *Service) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for channel %s: %v", msg.ChannelID, err)
		return err
	}
	return nil
}

// GetChannelHistory returns the latest limit messages of a channel, oldest first.
func (s *Service) GetChannelHistory(ctx context.Context, channelID string, limit int) ([]models.ChatMessage, error) {
	var history []models.ChatMessage

	err := s.DB.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		log.Printf("ERROR: Failed to get history for channel %s: %v", channelID, err)
		return nil, err
	}

	slices.Reverse(history)
	return history, nil
}

// PublishFrame публікує кадр у Redis Pub/Sub для інших інстансів.
func (s *Service) PublishFrame(ctx context.Context, envelope models.RelayEnvelope) error {
	if s.Redis == nil {
		return ErrPubSubDisabled
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, RoomChannelPrefix+envelope.Topic, data).Err()
}

// SubscribeRooms listens on every room channel. The returned channel is
// closed when ctx is cancelled or the subscription breaks.
func (s *Service) SubscribeRooms(ctx context.Context) (<-chan models.RelayEnvelope, error) {
	if s.Redis == nil {
		return nil, ErrPubSubDisabled
	}

	pubsub := s.Redis.PSubscribe(ctx, RoomChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to rooms: %w", err)
	}

	out := make(chan models.RelayEnvelope)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var envelope models.RelayEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
					log.Printf("Error unmarshalling Redis message: %v", err)
					continue
				}
				select {
				case out <- envelope:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Ping checks the database and, when configured, Redis.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.Redis != nil {
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
