package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	exchange, key string
	body          []byte
}

func (c *capturePublisher) Publish(_ context.Context, exchange, key string, body []byte) error {
	c.exchange, c.key, c.body = exchange, key, body
	return nil
}

func TestRetryPolicyBackoffIsCapped(t *testing.T) {
	p := RetryPolicy{Initial: time.Second, Max: 3 * time.Second, Factor: 1.5}

	d := p.Initial
	d = p.next(d)
	assert.Equal(t, 1500*time.Millisecond, d)
	d = p.next(d)
	d = p.next(d)
	d = p.next(d)
	assert.Equal(t, 3*time.Second, d)
}

func TestPublishJSON(t *testing.T) {
	c := &capturePublisher{}

	err := PublishJSON(context.Background(), c, ExchangeCoverage, "coverage.period.d-1", map[string]any{"period": "PERIOD_1"})
	require.NoError(t, err)

	assert.Equal(t, ExchangeCoverage, c.exchange)
	assert.Equal(t, "coverage.period.d-1", c.key)
	var got map[string]any
	require.NoError(t, json.Unmarshal(c.body, &got))
	assert.Equal(t, "PERIOD_1", got["period"])
}

func TestPublishWithoutChannel(t *testing.T) {
	err := (&RabbitMQ{}).Publish(context.Background(), ExchangeCoverage, "k", nil)
	require.ErrorIs(t, err, ErrChannelUnavailable)
}
