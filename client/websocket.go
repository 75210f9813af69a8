package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/poolfund/meta"
)

var upGrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	subscriberBuffer = 64
	writeWait        = 5 * time.Second
)

// Hub 作为事件 Sink，把提交后的合约事件推送给所有 websocket 订阅者
type Hub struct {
	mu   sync.Mutex
	subs map[chan meta.ContractEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan meta.ContractEvent]struct{})}
}

// Publish 不阻塞调用方，订阅者缓冲区满时丢弃事件
func (h *Hub) Publish(_ context.Context, events []meta.ContractEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		for _, e := range events {
			select {
			case ch <- e:
			default:
				log.Warningf("[Hub] subscriber too slow, drop event %s/%s", e.TxID, e.Topic)
			}
		}
	}
	return nil
}

func (h *Hub) subscribe() chan meta.ContractEvent {
	ch := make(chan meta.ContractEvent, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan meta.ContractEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *Hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// 使用WebSocket向前端推送合约事件
func (s *Server) events(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusNotFound, errResponse("NO_EVENT_STREAM", "event stream disabled"))
		return
	}
	// 升级请求为WebSocket协议
	ws, err := upGrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Info("Upgrade failed: ", err)
		return
	}
	defer ws.Close()

	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)

	// 读循环只用来感知客户端断开
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case e := <-ch:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(e); err != nil {
				log.Info(err)
				return
			}
		}
	}
}
