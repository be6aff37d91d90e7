package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_RecordsPayloads(t *testing.T) {
	t.Parallel()

	pub := NewMemory()

	id1, err := pub.Publish(context.Background(), map[string]string{"run": "a"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)

	id2, err := pub.Publish(context.Background(), "summary")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	got := pub.Payloads()
	require.Len(t, got, 2)
	require.Equal(t, map[string]string{"run": "a"}, got[0])
	require.Equal(t, "summary", got[1])

	got[1] = "modified"
	require.Equal(t, "summary", pub.Payloads()[1], "Payloads must return a copy")
}

func TestNoop_DropsPayloads(t *testing.T) {
	t.Parallel()

	id, err := Noop{}.Publish(context.Background(), "anything")
	require.NoError(t, err)
	require.Empty(t, id)
	require.NoError(t, Noop{}.Close(context.Background()))
}

func TestNew_ProviderSwitch(t *testing.T) {
	t.Parallel()

	pub, err := New(context.Background(), Config{Provider: "none"})
	require.NoError(t, err)
	require.IsType(t, Noop{}, pub)

	pub, err = New(context.Background(), Config{})
	require.NoError(t, err)
	require.IsType(t, Noop{}, pub)

	_, err = New(context.Background(), Config{Provider: "kafka"})
	require.ErrorContains(t, err, "unknown publisher provider")
}

func TestNewPubSub_RequiresProjectAndTopic(t *testing.T) {
	t.Parallel()

	_, err := NewPubSub(context.Background(), "", "runs")
	require.ErrorContains(t, err, "project id")

	_, err = NewPubSub(context.Background(), "slang-pipeline", "")
	require.ErrorContains(t, err, "topic")
}
