package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a, b := h.Subscribe(), h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Emit("req-1", TypeImportProgress, map[string]int{"percent": 50})

	for _, ch := range []chan string{a, b} {
		var e Event
		require.NoError(t, json.Unmarshal([]byte(<-ch), &e))
		assert.Equal(t, TypeImportProgress, e.Type)
		assert.Equal(t, 1, e.Version)
		assert.Equal(t, "req-1", e.RequestID)
		assert.JSONEq(t, `{"percent":50}`, string(e.Data))
	}

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Subscribers())
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	for i := 0; i < clientBuffer+10; i++ {
		h.Publish("x")
	}
	assert.Len(t, ch, clientBuffer)
}

func TestMakeEventWithoutData(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(MakeEvent("", TypePing, 1, nil)), &e))
	assert.Equal(t, TypePing, e.Type)
	assert.Empty(t, e.Data)
}
