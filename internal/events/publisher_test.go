package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPublisher(t *testing.T) {
	t.Run("Disabled without brokers", func(t *testing.T) {
		assert.Nil(t, NewPublisher(nil, "payment-events"))
		assert.Nil(t, NewPublisher([]string{}, "payment-events"))
	})

	t.Run("Disabled without topic", func(t *testing.T) {
		assert.Nil(t, NewPublisher([]string{"kafka-1:9092"}, ""))
	})

	t.Run("Enabled when configured", func(t *testing.T) {
		p := NewPublisher([]string{"kafka-1:9092"}, "payment-events")
		assert.NotNil(t, p)
		assert.NoError(t, p.Close())
	})
}

func TestPublisher_NilSafe(t *testing.T) {
	var p *Publisher

	// A disabled publisher must be callable without panicking.
	p.PaymentStatusChanged(context.Background(), "ORD-1", "PAID", 19900000)
	assert.NoError(t, p.Close())
}
