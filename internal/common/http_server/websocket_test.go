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
	"atrack/internal/common/reply"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWebSocketHub_BusyKeptWhenQueueFull тестирует, что состояние занятости не теряется при заполненной очереди
func TestWebSocketHub_BusyKeptWhenQueueFull(t *testing.T) {
	hub := NewWebSocketHub()

	for i := 0; i < cap(hub.broadcast)+10; i++ {
		hub.BroadcastEvent(reply.EventData{Name: "filler", Type: reply.EventTypeNotification})
	}
	hub.BroadcastBusy(true)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ts := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	msg := readJSON(t, conn)
	assert.Equal(t, reply.EventTypeBusy, msg["type"])
	assert.Equal(t, true, msg["busy"])
}

// TestWebSocketHub_BusyNotRepeated тестирует, что клиент не получает одно состояние дважды
func TestWebSocketHub_BusyNotRepeated(t *testing.T) {
	hub := NewWebSocketHub()
	hub.BroadcastBusy(false)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ts := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, false, readJSON(t, conn)["busy"])

	hub.BroadcastBusy(false)
	hub.BroadcastBusy(true)
	assert.Equal(t, true, readJSON(t, conn)["busy"])
}
