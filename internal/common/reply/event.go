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

package reply

import (
	"atrack/internal/common/app"
	"context"
	"encoding/json"
	"sync"

	"github.com/godbus/dbus/v5"
)

// EventData содержит данные события.
type EventData struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	View        string `json:"message"`
	State       string `json:"state"`
	Type        string `json:"type"`
	Error       string `json:"error,omitempty"`
	Transaction string `json:"transaction,omitempty"`
}

const (
	EventTypeNotification = "NOTIFICATION"
	EventTypeBusy         = "BUSY"

	StateBefore = "BEFORE"
	StateAfter  = "AFTER"

	DBusObjectPath         = dbus.ObjectPath("/org/atrack/Tracker")
	DBusNotificationSignal = app.DBusServiceName + ".Notification"
)

// NotificationOption функция-опция для настройки EventData.
type NotificationOption func(*EventData)

// WithEventName задаёт имя события.
func WithEventName(name string) NotificationOption {
	return func(ed *EventData) {
		ed.Name = name
	}
}

// WithEventID задаёт идентификатор запуска задачи, общий для BEFORE и AFTER
func WithEventID(id string) NotificationOption {
	return func(ed *EventData) {
		ed.ID = id
	}
}

// WithEventView задаёт текст отображения события
func WithEventView(name string) NotificationOption {
	return func(ed *EventData) {
		ed.View = name
	}
}

// WithEventError прикладывает текст ошибки завершившейся задачи
func WithEventError(err error) NotificationOption {
	return func(ed *EventData) {
		if err != nil {
			ed.Error = err.Error()
		}
	}
}

// EventSink получатель событий, например WebSocket hub
type EventSink func(ed *EventData)

var (
	sinksMu sync.Mutex
	sinks   = map[int]EventSink{}
	sinkID  int
)

// AddEventSink подключает получателя событий. Возвращает функцию отключения.
func AddEventSink(sink EventSink) (remove func()) {
	sinksMu.Lock()
	defer sinksMu.Unlock()

	sinkID++
	id := sinkID
	sinks[id] = sink

	return func() {
		sinksMu.Lock()
		defer sinksMu.Unlock()
		delete(sinks, id)
	}
}

// CreateEventNotification создаёт EventData, используя заданное состояние и опции, и рассылает его.
func CreateEventNotification(ctx context.Context, state string, opts ...NotificationOption) {
	ed := EventData{
		State: state,
		Type:  EventTypeNotification,
	}

	for _, opt := range opts {
		opt(&ed)
	}

	if ed.Name == "" {
		ed.Name = "unknown"
	}

	if ed.View == "" {
		ed.View = getTaskText(ed.Name)
	}

	PublishEvent(ctx, &ed)
}

// PublishEvent отправляет событие в индикатор, подключённым получателям и на D-Bus.
func PublishEvent(ctx context.Context, eventData *EventData) {
	appConfig := app.GetAppConfig(ctx)
	if tx := app.GetTransaction(ctx); tx != "" {
		eventData.Transaction = tx
	}

	if eventData.Type == EventTypeNotification {
		taskID := eventData.ID
		if taskID == "" {
			taskID = eventData.Name
		}
		UpdateTask(appConfig, taskID, eventData.View, eventData.State)
	}

	// Рассылаем вне блокировки, получатель может сам отключиться
	sinksMu.Lock()
	snapshot := make([]EventSink, 0, len(sinks))
	for _, sink := range sinks {
		snapshot = append(snapshot, sink)
	}
	sinksMu.Unlock()

	for _, sink := range snapshot {
		sink(eventData)
	}

	if appConfig.ConfigManager.GetConfig().Format != app.FormatDBus {
		return
	}

	SendNotificationResponse(eventData, appConfig.DBusManager.GetConnection())
}

// SendNotificationResponse отправляет событие сигналом D-Bus.
func SendNotificationResponse(eventData *EventData, dbusConn *dbus.Conn) {
	if dbusConn == nil {
		app.Log.Error(app.T_("DBus connection is not initialized"))
		return
	}

	message, err := json.Marshal(eventData)
	if err != nil {
		app.Log.Debug(err.Error())
		return
	}

	if err = dbusConn.Emit(DBusObjectPath, DBusNotificationSignal, string(message)); err != nil {
		app.Log.Errorf(app.T_("Error sending notification: %v"), err)
	}
}

func getTaskText(task string) string {
	switch task {
	case "screen.Increment":
		return app.T_("Incrementing number")
	case "screen.ChangeColor":
		return app.T_("Generating colour")
	case "screen.Burst":
		return app.T_("Running tasks in parallel")
	default:
		return task
	}
}
