package handlers

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/internal/contracts"
	"github.com/wonny/ibdscreener/pkg/logger"
)

// idleSubscriber is registered without a writer, so nothing drains its queue
func idleSubscriber(h *Hub) *subscriber {
	sub := &subscriber{send: make(chan []byte, sendBuffer)}
	h.add(sub)
	return sub
}

func TestHub_BroadcastDropsFullSubscriber(t *testing.T) {
	h := NewHub(logger.Nop())
	stuck := idleSubscriber(h)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i <= sendBuffer; i++ {
			h.Broadcast(WSMessage{Type: "run_completed"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a subscriber that never reads")
	}

	assert.Equal(t, 0, h.Clients())
	// 큐는 닫혔고 이미 쌓인 메시지만 남음
	n := 0
	for range stuck.send {
		n++
	}
	assert.Equal(t, sendBuffer, n)
}

func TestHub_MessageKinds(t *testing.T) {
	h := NewHub(logger.Nop())
	sub := idleSubscriber(h)

	run := &contracts.ScreeningRun{
		RunID:   "run-1",
		Results: []*contracts.ScreenerResult{{Name: "Momentum 97", Tickers: []string{"NVDA"}}},
	}

	// 완료 알림은 RunSaved에서만
	h.RunDone(run, nil)
	assert.Len(t, sub.send, 0)

	h.RunSaved(run)
	h.RunDone(nil, errors.New("connection refused"))
	require.Len(t, sub.send, 2)

	var completed struct {
		Type    string     `json:"type"`
		Payload RunSummary `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(<-sub.send, &completed))
	assert.Equal(t, "run_completed", completed.Type)
	assert.Equal(t, "run-1", completed.Payload.RunID)
	assert.Equal(t, []string{"NVDA"}, completed.Payload.Tickers["Momentum 97"])

	var failed WSMessage
	require.NoError(t, json.Unmarshal(<-sub.send, &failed))
	assert.Equal(t, "run_failed", failed.Type)

	h.Close()
	assert.Equal(t, 0, h.Clients())
}
