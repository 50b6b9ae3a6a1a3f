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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, format string) context.Context {
	t.Helper()
	cm, err := app.NewConfigManager(app.BuildInfo{})
	require.NoError(t, err)
	cm.SetFormat(format)

	appConfig := app.NewAppConfig(cm, app.NewDBusManager())
	return context.WithValue(context.Background(), app.AppConfigKey, appConfig)
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	saved := output
	output = buf
	t.Cleanup(func() { output = saved })
	return buf
}

type colorView struct {
	Hex string `json:"hex"`
	Red int    `json:"red"`
}

// TestCliResponse_JSON тестирует JSON вывод без поля message
func TestCliResponse_JSON(t *testing.T) {
	buf := captureOutput(t)
	ctx := context.WithValue(newTestContext(t, app.FormatJSON), app.TransactionKey, "tx-1")

	err := CliResponse(ctx, OK(map[string]interface{}{
		"message": "done",
		"number":  3,
		"color":   colorView{Hex: "#ff0000", Red: 255},
	}))
	require.NoError(t, err)

	var decoded struct {
		Data        map[string]interface{} `json:"data"`
		Error       bool                   `json:"error"`
		Transaction string                 `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.False(t, decoded.Error)
	assert.Equal(t, "tx-1", decoded.Transaction)
	assert.Equal(t, float64(3), decoded.Data["number"])
	assert.NotContains(t, decoded.Data, "message")
	assert.Equal(t, "#ff0000", decoded.Data["color"].(map[string]interface{})["hex"])
}

// TestCliResponse_Error тестирует ответ с ошибкой
func TestCliResponse_Error(t *testing.T) {
	buf := captureOutput(t)
	ctx := newTestContext(t, app.FormatJSON)

	err := CliResponse(ctx, Fail("task failed"))
	assert.True(t, errors.Is(err, ErrResponse))
	assert.Contains(t, buf.String(), `"error": true`)
	assert.Contains(t, buf.String(), "task failed")
}

// TestCliResponse_YAML тестирует YAML вывод
func TestCliResponse_YAML(t *testing.T) {
	buf := captureOutput(t)
	ctx := newTestContext(t, app.FormatYAML)

	err := CliResponse(ctx, OK(map[string]interface{}{"number": 5, "busy": false}))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "number: 5")
	assert.Contains(t, buf.String(), "busy: false")
	assert.Contains(t, buf.String(), "error: false")
}

// TestCliResponse_Text тестирует дерево текстового вывода
func TestCliResponse_Text(t *testing.T) {
	buf := captureOutput(t)
	ctx := newTestContext(t, app.FormatText)

	err := CliResponse(ctx, OK(map[string]interface{}{
		"message": "Number incremented",
		"number":  2,
		"busy":    true,
		"results": []interface{}{"a", "b"},
	}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Number incremented")
	assert.Contains(t, out, "Number: 2")
	assert.Contains(t, out, "Busy: yes")
	assert.Contains(t, out, "1) a")
	assert.Contains(t, out, "2) b")
}

// TestCliResponse_TextErrorCapitalized тестирует заглавную букву в тексте ошибки
func TestCliResponse_TextErrorCapitalized(t *testing.T) {
	buf := captureOutput(t)
	ctx := newTestContext(t, app.FormatText)

	err := CliResponse(ctx, Fail("random failure"))
	assert.ErrorIs(t, err, ErrResponse)
	assert.Contains(t, buf.String(), "Random failure")
}

// TestCliResponse_PlainString тестирует вывод данных, не являющихся map
func TestCliResponse_PlainString(t *testing.T) {
	buf := captureOutput(t)
	ctx := newTestContext(t, app.FormatText)

	require.NoError(t, CliResponse(ctx, APIResponse{Data: "hello"}))
	assert.Equal(t, "hello\n", buf.String())
}

// TestTranslateKey тестирует перевод известных и неизвестных ключей
func TestTranslateKey(t *testing.T) {
	assert.Equal(t, "Number", TranslateKey("number"))
	assert.Equal(t, "unknownKey", TranslateKey("unknownKey"))
}
