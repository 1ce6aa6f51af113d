package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() { b.Publish() })
}

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	b := New()
	var order []string
	b.Subscribe(func() { order = append(order, "first") })
	b.Subscribe(func() { order = append(order, "second") })
	b.Subscribe(func() { order = append(order, "third") })

	b.Publish()
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestDisposerPreventsLaterDelivery(t *testing.T) {
	b := New()
	fired := 0
	unsubscribe := b.Subscribe(func() { fired++ })

	b.Publish()
	require.Equal(t, 1, fired)

	unsubscribe()
	b.Publish()
	assert.Equal(t, 1, fired, "disposed handler must not fire")
}

func TestDisposerIsIdempotent(t *testing.T) {
	b := New()
	unsubscribe := b.Subscribe(func() {})
	unsubscribe()
	assert.NotPanics(t, unsubscribe)
}

func TestDisposerRemovesOnlyItsOwnHandler(t *testing.T) {
	b := New()
	var calls []string
	disposeA := b.Subscribe(func() { calls = append(calls, "a") })
	b.Subscribe(func() { calls = append(calls, "b") })

	disposeA()
	b.Publish()
	assert.Equal(t, []string{"b"}, calls)
}

func TestLateSubscriberMissesEarlierSignal(t *testing.T) {
	b := New()
	b.Publish() // nobody listening, nothing replayed

	fired := false
	b.Subscribe(func() { fired = true })
	assert.False(t, fired, "signals are not replayed to late subscribers")

	b.Publish()
	assert.True(t, fired)
}
