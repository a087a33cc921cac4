package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/yuriirask-bit/compliance-gin/internal/model"
)

// Hub 管理所有 WebSocket 连接
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 广播消息到所有客户端
	Broadcast chan []byte

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// 互斥锁,保护 clients map
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// StatusEvent 交易状态变更事件
type StatusEvent struct {
	Type          string                  `json:"type"`
	TransactionID string                  `json:"transaction_id"`
	FromStatus    model.TransactionStatus `json:"from_status"`
	ToStatus      model.TransactionStatus `json:"to_status"`
	At            time.Time               `json:"at"`
}

// NotifyStatusChange 广播交易状态变更
// 实现 service.StatusNotifier,非阻塞: 队列满时丢弃事件,不影响验证流程
func (h *Hub) NotifyStatusChange(transactionID string, from, to model.TransactionStatus) {
	event := StatusEvent{
		Type:          "transaction_status_changed",
		TransactionID: transactionID,
		FromStatus:    from,
		ToStatus:      to,
		At:            time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case h.Broadcast <- payload:
	default:
	}
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
