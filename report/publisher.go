package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"market-scanner/models"
)

// Publisher emits scan reports for downstream monitoring.
type Publisher interface {
	Publish(ctx context.Context, r *models.ScanReport) error
	Close() error
}

// RedisPublisher pushes scan reports onto a Redis stream so monitors can
// consume them without polling the database.
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int64
}

// NewRedisPublisher creates a publisher writing to the given stream.
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: int64(streamMaxLength),
	}
}

// Publish appends the report as a JSON payload, trimming the stream to the
// configured maximum length as it goes.
func (p *RedisPublisher) Publish(ctx context.Context, r *models.ScanReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.streamMaxLength,
		Approx: true,
		Values: map[string]interface{}{
			"area":   r.Area,
			"report": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("report: publish %q: %w", r.Area, err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
