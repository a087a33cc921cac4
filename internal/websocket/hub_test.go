package websocket_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuriirask-bit/compliance-gin/internal/model"
	"github.com/yuriirask-bit/compliance-gin/internal/websocket"
)

// TestNotifyStatusChange 测试状态变更事件进入广播队列
func TestNotifyStatusChange(t *testing.T) {
	hub := websocket.NewHub()

	hub.NotifyStatusChange("txn-001", model.StatusPending, model.StatusValid)

	select {
	case payload := <-hub.Broadcast:
		var event websocket.StatusEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, "transaction_status_changed", event.Type)
		assert.Equal(t, "txn-001", event.TransactionID)
		assert.Equal(t, model.StatusPending, event.FromStatus)
		assert.Equal(t, model.StatusValid, event.ToStatus)
		assert.False(t, event.At.IsZero())
	default:
		t.Fatal("expected a status event on the broadcast channel")
	}
}

// TestNotifyStatusChangeNonBlocking 测试队列满时不阻塞验证流程
func TestNotifyStatusChangeNonBlocking(t *testing.T) {
	hub := websocket.NewHub()

	// 超出队列容量的事件被丢弃而非阻塞
	for i := 0; i < 300; i++ {
		hub.NotifyStatusChange("txn-001", model.StatusPending, model.StatusValid)
	}
	assert.Equal(t, 0, hub.GetClientCount())
}
