//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/rshade/carbonledger/internal/engine"
)

func TestKafkaPublisher_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	kContainer, err := kafkaContainer.RunContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kContainer.Terminate(context.Background()) })

	brokers, err := kContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	const topic = "carbonledger.events.it"
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))

	pub, err := NewKafkaPublisher(KafkaConfig{Brokers: brokers, Topic: topic})
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(ctx, loggedEvent()))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "01HZX", string(msg.Key))

	var ev engine.Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	require.Equal(t, engine.EventActivityLogged, ev.Type)
}
