package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	a, cancelA := bus.Subscribe(4)
	defer cancelA()
	b, cancelB := bus.Subscribe(4)
	defer cancelB()

	bus.Publish(KindUserUpdated, map[string]int{"credits": 10})

	evA := <-a
	evB := <-b
	assert.Equal(t, KindUserUpdated, evA.Kind)
	assert.Equal(t, evA.Seq, evB.Seq)
	assert.Equal(t, uint64(1), evA.Seq)
}

func TestBus_DropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(KindBinCollected, "b_1")
	bus.Publish(KindBinCollected, "b_2")

	require.Len(t, ch, 1)
	ev := <-ch
	assert.Equal(t, "b_1", ev.Payload)
	assert.Equal(t, uint64(1), bus.Dropped())
}

func TestBus_CancelUnsubscribes(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	require.Equal(t, 1, bus.Subscribers())

	cancel()
	cancel()

	assert.Equal(t, 0, bus.Subscribers())
	_, ok := <-ch
	assert.False(t, ok)

	bus.Publish(KindKioskChanged, nil)
}
