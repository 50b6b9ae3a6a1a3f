// Activity Tracker
// Copyright (C) 2025 Дмитрий Удалов dmitry@udalov.online
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package http_server

import (
	"atrack/internal/common/app"
	"atrack/internal/common/reply"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// BusyEvent сообщение об изменении занятости
type BusyEvent struct {
	Type string `json:"type"`
	Busy bool   `json:"busy"`
}

// WebSocketHub управляет WebSocket подключениями и рассылкой событий
type WebSocketHub struct {
	clients    map[*WebSocketClient]bool
	broadcast  chan []byte
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	mu         sync.RWMutex

	// busy последнее состояние занятости, его получает каждый новый клиент.
	// Не теряется при переполнении broadcast: цикл hub забирает актуальное
	// значение по сигналу busyChanged.
	busy        []byte
	busyChanged chan struct{}
}

// WebSocketClient представляет одного подключенного клиента
type WebSocketClient struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan []byte

	// lastBusy состояние, уже отправленное клиенту, меняется только в цикле hub
	lastBusy []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Разрешаем все origins для локального использования
	},
}

// NewWebSocketHub создаёт новый WebSocket hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*WebSocketClient]bool),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *WebSocketClient),
		unregister:  make(chan *WebSocketClient),
		busyChanged: make(chan struct{}, 1),
	}
}

// Run запускает основной цикл обработки событий hub до отмены ctx
func (h *WebSocketHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			busy := h.busy
			h.mu.Unlock()
			// Новый клиент сразу получает текущее состояние
			if busy != nil {
				client.lastBusy = busy
				client.send <- busy
			}
			app.Log.Debug("WebSocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			app.Log.Debug("WebSocket client disconnected")

		case <-h.busyChanged:
			h.mu.RLock()
			busy := h.busy
			for client := range h.clients {
				if bytes.Equal(client.lastBusy, busy) {
					continue
				}
				client.lastBusy = busy
				h.sendTo(client, busy)
			}
			h.mu.RUnlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				h.sendTo(client, message)
			}
			h.mu.RUnlock()
		}
	}
}

// sendTo отправляет сообщение клиенту, вызывается из цикла hub
func (h *WebSocketHub) sendTo(client *WebSocketClient, message []byte) {
	select {
	case client.send <- message:
	default:
		// Клиент не успевает читать, закрываем соединение
		go func(c *WebSocketClient) {
			h.unregister <- c
		}(client)
	}
}

// BroadcastBusy запоминает состояние занятости и будит цикл hub для рассылки.
// Состояние не теряется: при нескольких изменениях подряд клиенты получают последнее.
func (h *WebSocketHub) BroadcastBusy(busy bool) {
	data, err := json.Marshal(BusyEvent{Type: reply.EventTypeBusy, Busy: busy})
	if err != nil {
		app.Log.Errorf("Failed to marshal WebSocket event: %v", err)
		return
	}

	h.mu.Lock()
	h.busy = data
	h.mu.Unlock()

	select {
	case h.busyChanged <- struct{}{}:
	default:
	}
}

// BroadcastEvent отправляет событие всем подключённым клиентам
func (h *WebSocketHub) BroadcastEvent(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		app.Log.Errorf("Failed to marshal WebSocket event: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		app.Log.Debug("WebSocket broadcast channel full, dropping message")
	}
}

// ClientCount возвращает количество подключённых клиентов
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket обрабатывает WebSocket подключения
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &WebSocketClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump читает сообщения от клиента (для ping/pong и закрытия)
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-time.After(time.Second):
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				app.Log.Debugf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump отправляет сообщения клиенту, одно сообщение на кадр
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
