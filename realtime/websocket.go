package realtime

import (
	"net/http"
	"time"

	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Upgrader dipakai semua endpoint websocket. Origin sudah dibatasi oleh middleware CORS/token.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Pump mengirim semua pesan dari channel ke conn sampai channel ditutup atau client putus.
// Pump memblok; conn ditutup saat selesai.
func Pump(conn *websocket.Conn, messages <-chan Message) {
	done := make(chan struct{})

	// reader: hanya untuk deteksi close & pong
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-messages:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				utils.ErrorLogger.Errorf("Error sending message to client: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// ServeTopic men-stream satu topic hub ke conn.
func (h *Hub) ServeTopic(conn *websocket.Conn, topic string) {
	sub := h.Subscribe(topic, 32)
	defer sub.Close()
	Pump(conn, sub.C)
}
