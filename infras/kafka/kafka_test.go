package kafka_test

import (
	"context"
	"testing"

	"feastline/config"
	"feastline/infras/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_ToKafkaMessage(t *testing.T) {
	msg := kafka.Message{Key: "booking-7", Value: map[string]any{"booking_id": "7", "date": "2025-03-10"}}

	out, err := msg.ToKafkaMessage()
	require.NoError(t, err)

	assert.Equal(t, []byte("booking-7"), out.Key)
	assert.JSONEq(t, `{"booking_id":"7","date":"2025-03-10"}`, string(out.Value))
}

func TestMessage_ToKafkaMessageUnsupportedValue(t *testing.T) {
	msg := kafka.Message{Key: "k", Value: make(chan int)}

	_, err := msg.ToKafkaMessage()
	assert.Error(t, err)
}

func TestNew_WithoutBrokersDropsMessages(t *testing.T) {
	client := kafka.New(&config.Config{})

	err := client.SendMessages(context.Background(), "booking.committed", kafka.Message{Key: "k", Value: "v"})
	assert.NoError(t, err)
	assert.NoError(t, client.Close())
}
