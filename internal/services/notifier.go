package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/utils"
)

// PipelineEvent is published whenever a worker lands a lifecycle transition,
// so a frontend process can forward it to connected clients. Reads of content
// state never depend on these events; they are advisory.
type PipelineEvent struct {
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	ContentID   uuid.UUID `json:"content_id"`
	Event       string    `json:"event"`
	Stage       string    `json:"stage"`
	Message     string    `json:"message,omitempty"`
	At          time.Time `json:"at"`
}

type PipelineNotifier interface {
	ContentIngested(ownerUserID, contentID uuid.UUID)
	ContentEmbedded(ownerUserID, contentID uuid.UUID)
	ContentFailed(ownerUserID, contentID uuid.UUID, stage, message string)
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisNotifier(log *logger.Logger) (PipelineNotifier, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := utils.GetEnv("REDIS_CHANNEL", "pipeline-events", log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisNotifier{
		log:     log.With("service", "RedisNotifier"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (n *redisNotifier) publish(ev PipelineEvent) {
	ev.At = time.Now()
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Warn("Publish pipeline event failed", "event", ev.Event, "content_id", ev.ContentID, "error", err)
	}
}

func (n *redisNotifier) ContentIngested(ownerUserID, contentID uuid.UUID) {
	n.publish(PipelineEvent{OwnerUserID: ownerUserID, ContentID: contentID, Event: "ingested", Stage: "ingestion"})
}

func (n *redisNotifier) ContentEmbedded(ownerUserID, contentID uuid.UUID) {
	n.publish(PipelineEvent{OwnerUserID: ownerUserID, ContentID: contentID, Event: "embedded", Stage: "embedding"})
}

func (n *redisNotifier) ContentFailed(ownerUserID, contentID uuid.UUID, stage, message string) {
	n.publish(PipelineEvent{OwnerUserID: ownerUserID, ContentID: contentID, Event: "failed", Stage: stage, Message: message})
}

// NoopNotifier keeps the pipeline running when redis is not configured.
type NoopNotifier struct{}

func (NoopNotifier) ContentIngested(ownerUserID, contentID uuid.UUID)                      {}
func (NoopNotifier) ContentEmbedded(ownerUserID, contentID uuid.UUID)                      {}
func (NoopNotifier) ContentFailed(ownerUserID, contentID uuid.UUID, stage, message string) {}
