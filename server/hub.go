package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
)

// client 一个WebSocket观察者连接
type client struct {
	id   string
	conn *websocket.Conn
	send chan controller.Snapshot
}

// Hub WebSocket广播集线器
// 功能：维护观察者连接集合，把每个评估步的快照推送给全部观察者
// 说明：推送是尽力而为的——发送缓冲占满或写入失败的观察者被直接移除，
// 绝不阻塞或延迟下一个评估步
type Hub struct {
	mtx     sync.Mutex
	clients map[string]*client
}

// NewHub 创建广播集线器
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Broadcast 向全部观察者广播快照
// 参数：s-控制器状态快照
// 说明：对每个观察者做非阻塞投递，投递失败即移除该观察者
func (h *Hub) Broadcast(s controller.Snapshot) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- s:
		default:
			// 观察者消费过慢，丢弃之
			log.Warnf("observer %s too slow, dropping", id)
			delete(h.clients, id)
			close(c.send)
		}
	}
}

// add 注册观察者并启动其写协程
func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan controller.Snapshot, 16),
	}
	h.mtx.Lock()
	h.clients[c.id] = c
	h.mtx.Unlock()
	go c.writeLoop(h)
	log.Infof("observer %s connected (%d total)", c.id, h.Count())
	return c
}

// remove 注销观察者
func (h *Hub) remove(id string) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.send)
	}
}

// Count 获取当前观察者数量
func (h *Hub) Count() int {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return len(h.clients)
}

// Close 关闭全部观察者连接
func (h *Hub) Close() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

// writeLoop 观察者写协程，串行写出快照直至通道关闭或写入失败
func (c *client) writeLoop(h *Hub) {
	defer c.conn.Close()
	for s := range c.send {
		if err := c.conn.WriteJSON(s); err != nil {
			log.Infof("observer %s disconnected: %v", c.id, err)
			h.remove(c.id)
			return
		}
	}
}
