package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// 单次写入超时
	writeWait = 10 * time.Second

	// 未收到 pong 的最长等待
	pongWait = 60 * time.Second

	// ping 周期,须小于 pongWait
	pingPeriod = (pongWait * 9) / 10

	// 客户端入站消息上限,状态流只接收保活帧
	maxInboundSize = 1024
)

// Client 一条已认证的状态推送连接
type Client struct {
	// ID 连接 ID
	ID string

	// UserID 认证用户 ID,定向推送时用于过滤
	UserID string

	// Hub 所属 Hub
	Hub *Hub

	// Conn 底层 WebSocket 连接
	Conn *websocket.Conn

	// Send 待推送事件队列,每个元素为一条完整的 JSON 事件
	Send chan []byte

	logger *logrus.Logger
}

// NewClient 创建状态推送客户端
func NewClient(id, userID string, hub *Hub, conn *websocket.Conn, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		ID:     id,
		UserID: userID,
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, 64),
		logger: logger,
	}
}

// ReadPump 消费入站帧
// 状态流是单向推送,入站数据只用于保活与探测断连
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxInboundSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithFields(logrus.Fields{
					"client_id": c.ID,
					"user_id":   c.UserID,
				}).WithError(err).Warn("websocket read failed")
			}
			return
		}
	}
}

// WritePump 推送事件并维持心跳
// 每条事件独立成帧,消费端可逐帧解析 JSON
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 注销了该客户端
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, event); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
