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

package screen

import (
	"atrack/internal/activity"
	"atrack/internal/common/app"
	"atrack/internal/common/reply"
	"context"
	"encoding/json"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface интерфейс действий экрана
	DBusInterface = "org.atrack.Screen"
	// DBusBusySignal сигнал изменения занятости
	DBusBusySignal = app.DBusServiceName + ".Busy"
)

// DBusWrapper – обёртка для действий экрана, предназначенная для экспорта через DBus.
type DBusWrapper struct {
	conn    *dbus.Conn
	actions *Actions
	ctx     context.Context
}

// NewDBusWrapper создаёт новую обёртку над actions
func NewDBusWrapper(a *Actions, c *dbus.Conn, ctx context.Context) *DBusWrapper {
	return &DBusWrapper{actions: a, conn: c, ctx: ctx}
}

func toDBusReply(ctx context.Context, resp *reply.APIResponse, err error) (string, *dbus.Error) {
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	resp.Transaction = app.GetTransaction(ctx)
	data, jerr := json.Marshal(resp)
	if jerr != nil {
		return "", dbus.MakeFailedError(jerr)
	}
	return string(data), nil
}

// Increment – Увеличить число
// doc_response: IncrementResponse
func (w *DBusWrapper) Increment(transaction string) (string, *dbus.Error) {
	ctx := app.WithTransaction(w.ctx, transaction)
	resp, err := w.actions.Increment(ctx)
	return toDBusReply(ctx, resp, err)
}

// ChangeColor – Заменить цвет случайным
// doc_response: ColorResponse
func (w *DBusWrapper) ChangeColor(transaction string) (string, *dbus.Error) {
	ctx := app.WithTransaction(w.ctx, transaction)
	resp, err := w.actions.ChangeColor(ctx)
	return toDBusReply(ctx, resp, err)
}

// Burst – Запустить несколько задач одновременно
// doc_response: BurstResponse
func (w *DBusWrapper) Burst(count int32, transaction string) (string, *dbus.Error) {
	ctx := app.WithTransaction(w.ctx, transaction)
	resp, err := w.actions.Burst(ctx, int(count))
	return toDBusReply(ctx, resp, err)
}

// State – Текущее состояние экрана
// doc_response: StateResponse
func (w *DBusWrapper) State(transaction string) (string, *dbus.Error) {
	ctx := app.WithTransaction(w.ctx, transaction)
	resp, err := w.actions.State(ctx)
	return toDBusReply(ctx, resp, err)
}

// Busy – Признак занятости
func (w *DBusWrapper) Busy() (bool, *dbus.Error) {
	return w.actions.Counter().Busy(), nil
}

// IntrospectNode описание объекта для org.freedesktop.DBus.Introspectable
func IntrospectNode(w *DBusWrapper) *introspect.Node {
	return &introspect.Node{
		Name: string(reply.DBusObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: introspect.Methods(w),
			},
			{
				Name: app.DBusServiceName,
				Signals: []introspect.Signal{
					{
						Name: "Busy",
						Args: []introspect.Arg{{Name: "busy", Type: "b"}},
					},
					{
						Name: "Notification",
						Args: []introspect.Arg{{Name: "event", Type: "s"}},
					},
				},
			},
		},
	}
}

// Exporter публикует объекты на шине, его реализует *dbus.Conn
type Exporter interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
}

// RegisterDBus переключает вывод в формат D-Bus и экспортирует обёртку с описанием интерфейсов.
// Формат меняется до экспорта, чтобы уже первый вызов отправлял уведомления сигналами.
func RegisterDBus(appConfig *app.Config, exporter Exporter, w *DBusWrapper) error {
	appConfig.ConfigManager.SetFormat(app.FormatDBus)

	if err := exporter.Export(w, reply.DBusObjectPath, DBusInterface); err != nil {
		return err
	}

	return exporter.Export(
		introspect.NewIntrospectable(IntrospectNode(w)),
		reply.DBusObjectPath,
		"org.freedesktop.DBus.Introspectable",
	)
}

// EmitBusySignals отправляет сигнал Busy при каждом изменении занятости, включая текущее значение
func EmitBusySignals(counter *activity.Counter, conn *dbus.Conn) *activity.Subscription {
	return counter.Subscribe(func(busy bool) {
		if err := conn.Emit(reply.DBusObjectPath, DBusBusySignal, busy); err != nil {
			app.Log.Errorf(app.T_("Error sending notification: %v"), err)
		}
	})
}
