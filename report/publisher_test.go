package report

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-scanner/models"
)

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	const stream = "test_scanreports"
	client.Del(ctx, stream)
	defer client.Del(ctx, stream)

	publisher := NewRedisPublisher("localhost:6379", 0, stream, 10)
	defer publisher.Close()

	rep := models.NewScanReport("Sea Point")
	rep.TotalListings = 42
	rep.NewListings = 7
	rep.Platform(models.PlatformAirbnb).Persisted = 20

	require.NoError(t, publisher.Publish(ctx, rep))

	msgs, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, "Sea Point", msgs[0].Values["area"])

	var decoded models.ScanReport
	payload, ok := msgs[0].Values["report"].(string)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, 42, decoded.TotalListings)
	assert.Equal(t, 7, decoded.NewListings)
	assert.Equal(t, 20, decoded.PerPlatformMetrics["airbnb"].Persisted)
}
