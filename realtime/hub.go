package realtime

import (
	"fmt"
	"sync"

	"github.com/foodcafeshop/food-cafe/utils"
)

// Event types
const (
	EventTableCreate  = "table_create"
	EventTableUpdate  = "table_update"
	EventTableDelete  = "table_delete"
	EventOrderCreate  = "order_create"
	EventOrderUpdate  = "order_update"
	EventBillCreate   = "bill_generated"
	EventSessionCheck = "session_verdict"
)

// Message adalah satu event yang dikirim ke subscriber dan client websocket.
type Message struct {
	Topic string      `json:"topic"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// TableTopic -> topic perubahan satu meja
func TableTopic(tableID uint) string {
	return fmt.Sprintf("table:%d", tableID)
}

// ShopTopic -> topic semua perubahan di satu toko (dashboard staff)
func ShopTopic(shopID uint) string {
	return fmt.Sprintf("shop:%d", shopID)
}

// Subscription menerima pesan untuk satu topic lewat channel C.
type Subscription struct {
	C     <-chan Message
	topic string
	ch    chan Message
	hub   *Hub
	once  sync.Once
}

// Close melepas subscription dan menutup channel C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub adalah pub/sub in-process berbasis topic.
type Hub struct {
	mutex sync.RWMutex
	subs  map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe mendaftarkan subscriber baru. buffer < 1 dianggap 1.
func (h *Hub) Subscribe(topic string, buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Message, buffer)
	sub := &Subscription{C: ch, topic: topic, ch: ch, hub: h}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if set, ok := h.subs[sub.topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.topic)
		}
	}
	close(sub.ch)
}

// Publish mengirim pesan ke semua subscriber topic. Subscriber yang lambat
// (buffer penuh) dilewati; consumer harus membaca ulang state saat menerima event berikutnya.
func (h *Hub) Publish(msg Message) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	delivered := 0
	for sub := range h.subs[msg.Topic] {
		select {
		case sub.ch <- msg:
			delivered++
		default:
			utils.InfoLogger.WithField("topic", msg.Topic).Warn("realtime: subscriber buffer full, dropping event")
		}
	}
	return delivered
}

// SubscriberCount dipakai dashboard dan test.
func (h *Hub) SubscriberCount(topic string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subs[topic])
}
