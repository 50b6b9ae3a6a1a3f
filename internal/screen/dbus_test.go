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
	"atrack/internal/common/app"
	"atrack/internal/common/reply"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exportCall один вызов Export вместе с форматом вывода в этот момент
type exportCall struct {
	path   dbus.ObjectPath
	iface  string
	format string
	value  interface{}
}

// recordingExporter запоминает вызовы Export
type recordingExporter struct {
	appConfig *app.Config
	calls     []exportCall
	err       error
}

func (e *recordingExporter) Export(v interface{}, path dbus.ObjectPath, iface string) error {
	e.calls = append(e.calls, exportCall{
		path:   path,
		iface:  iface,
		format: e.appConfig.ConfigManager.GetConfig().Format,
		value:  v,
	})
	return e.err
}

// TestDBusWrapper тестирует JSON ответы обёртки D-Bus
func TestDBusWrapper(t *testing.T) {
	env := newTestEnv(t, 0, 0.5, 0)
	w := NewDBusWrapper(env.actions, nil, env.ctx)

	out, dbusErr := w.Increment("tx-1")
	require.Nil(t, dbusErr)

	var resp struct {
		Data        IncrementResponse `json:"data"`
		Transaction string            `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Number)
	assert.Equal(t, "tx-1", resp.Transaction)

	out, dbusErr = w.State("")
	require.Nil(t, dbusErr)
	var state reply.APIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	_, err := uuid.Parse(state.Transaction)
	assert.NoError(t, err)

	busy, dbusErr := w.Busy()
	require.Nil(t, dbusErr)
	assert.False(t, busy)

	_, dbusErr = w.Burst(0, "")
	assert.NotNil(t, dbusErr)
}

// TestIntrospectNode тестирует описание интерфейса экрана
func TestIntrospectNode(t *testing.T) {
	node := IntrospectNode(NewDBusWrapper(nil, nil, context.Background()))

	require.Len(t, node.Interfaces, 3)
	iface := node.Interfaces[1]
	assert.Equal(t, DBusInterface, iface.Name)

	names := make([]string, 0, len(iface.Methods))
	for _, m := range iface.Methods {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"Busy", "Burst", "ChangeColor", "Increment", "State"}, names)

	signals := node.Interfaces[2]
	assert.Equal(t, app.DBusServiceName, signals.Name)
	assert.Len(t, signals.Signals, 2)
}

// TestRegisterDBus тестирует переключение формата до экспорта объектов
func TestRegisterDBus(t *testing.T) {
	env := newTestEnv(t, 0, 0.5)
	appConfig := app.GetAppConfig(env.ctx)
	exporter := &recordingExporter{appConfig: appConfig}
	w := NewDBusWrapper(env.actions, nil, env.ctx)

	require.NoError(t, RegisterDBus(appConfig, exporter, w))

	require.Len(t, exporter.calls, 2)
	for _, call := range exporter.calls {
		assert.Equal(t, app.FormatDBus, call.format)
		assert.Equal(t, reply.DBusObjectPath, call.path)
	}
	assert.Equal(t, DBusInterface, exporter.calls[0].iface)
	assert.Same(t, w, exporter.calls[0].value)
	assert.Equal(t, "org.freedesktop.DBus.Introspectable", exporter.calls[1].iface)
	assert.IsType(t, introspect.Introspectable(""), exporter.calls[1].value)
}

// TestRegisterDBus_ExportError тестирует возврат ошибки экспорта
func TestRegisterDBus_ExportError(t *testing.T) {
	env := newTestEnv(t, 0, 0.5)
	appConfig := app.GetAppConfig(env.ctx)
	exporter := &recordingExporter{appConfig: appConfig, err: errors.New("name taken")}

	err := RegisterDBus(appConfig, exporter, NewDBusWrapper(env.actions, nil, env.ctx))

	assert.EqualError(t, err, "name taken")
	assert.Len(t, exporter.calls, 1)
}
