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
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/yaml.v3"
)

// APIResponse описывает итоговую структуру ответа.
type APIResponse struct {
	Data        interface{} `json:"data" yaml:"data"`
	Error       bool        `json:"error" yaml:"error"`
	Transaction string      `json:"transaction,omitempty" yaml:"transaction,omitempty"`
}

// ErrResponse возвращается CliResponse для ответа с ошибкой, чтобы процесс завершился с кодом 1.
// Текст ошибки уже выведен, поэтому сообщение пустое.
var ErrResponse = errors.New("")

// output поток, в который пишутся ответы
var output io.Writer = os.Stdout

var (
	enumeratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2aa1b3")).
			MarginRight(1)

	// Адаптивный цвет для пунктов (для светлой/тёмной темы).
	adaptiveItemColor = lipgloss.AdaptiveColor{
		Light: "#171717",
		Dark:  "#c4c8c6",
	}

	itemStyle = lipgloss.NewStyle().
			Foreground(adaptiveItemColor)
)

// IsTTY пользователь запустил приложение в интерактивной консоли
func IsTTY() bool {
	return terminal.IsTerminal(int(os.Stdout.Fd()))
}

// OK формирует успешный ответ
func OK(data map[string]interface{}) APIResponse {
	return APIResponse{Data: data}
}

// Fail формирует ответ с ошибкой
func Fail(message string) APIResponse {
	return APIResponse{
		Data:  map[string]interface{}{"message": message},
		Error: true,
	}
}

// toGeneric приводит структуры к map/slice через JSON, чтобы ключи совпадали с json-тегами
func toGeneric(v interface{}) interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var out interface{}
	if err = json.Unmarshal(b, &out); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return out
}

func formatScalar(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return app.T_("no")
	case string:
		if vv == "" {
			return app.T_("no")
		}
		return vv
	case bool:
		if vv {
			return app.T_("yes")
		}
		return app.T_("no")
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// buildTreeFromMap рекурсивно строит дерево из map[string]interface{}.
func buildTreeFromMap(prefix string, data map[string]interface{}, accent lipgloss.Style) *tree.Tree {
	t := tree.New().Root(prefix)

	// "message" всегда первым
	if msgVal, haveMsg := data["message"]; haveMsg {
		addNode(t, "message", msgVal, accent, false)
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "message" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		addNode(t, k, data[k], accent, true)
	}

	return t
}

func addNode(t *tree.Tree, key string, value interface{}, accent lipgloss.Style, labelled bool) {
	label := TranslateKey(key)

	switch vv := value.(type) {
	case map[string]interface{}:
		t.Child(buildTreeFromMap(label, vv, accent))

	case []interface{}:
		if len(vv) == 0 {
			t.Child(fmt.Sprintf("%s: []", label))
			return
		}
		listNode := tree.New().Root(label)
		for i, elem := range vv {
			if mm, ok := elem.(map[string]interface{}); ok {
				listNode.Child(buildTreeFromMap(fmt.Sprintf("%d)", i+1), mm, accent))
			} else {
				listNode.Child(fmt.Sprintf("%d) %s", i+1, formatScalar(elem)))
			}
		}
		t.Child(listNode)

	default:
		text := formatScalar(vv)
		if key == "name" || key == "hex" {
			text = accent.Render(text)
		}
		if labelled {
			t.Child(fmt.Sprintf("%s: %s", label, text))
		} else {
			t.Child(text)
		}
	}
}

// capitalizeMessage делает первую букву сообщения об ошибке заглавной
func capitalizeMessage(data map[string]interface{}) {
	msgStr, ok := data["message"].(string)
	if !ok || len(msgStr) == 0 {
		return
	}
	runes := []rune(msgStr)
	if unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		data["message"] = string(runes)
	}
}

// CliResponse рендерит ответ в зависимости от формата (text/json/yaml).
func CliResponse(ctx context.Context, resp APIResponse) error {
	appConfig := app.GetAppConfig(ctx)
	StopSpinner(appConfig)

	if tx := app.GetTransaction(ctx); tx != "" {
		resp.Transaction = tx
	}
	resp.Data = toGeneric(resp.Data)

	switch appConfig.ConfigManager.GetConfig().Format {
	case app.FormatJSON:
		// Если нет ошибки, убираем "message"
		if dataMap, ok := resp.Data.(map[string]interface{}); ok && !resp.Error {
			delete(dataMap, "message")
		}
		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(output, string(b))

	case app.FormatYAML:
		b, err := yaml.Marshal(resp)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(output, string(b))

	default:
		renderText(appConfig.ConfigManager.GetColors(), resp)
	}

	if resp.Error {
		return ErrResponse
	}

	return nil
}

func renderText(colors app.Colors, resp APIResponse) {
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		_, _ = fmt.Fprintln(output, formatScalar(resp.Data))
		return
	}

	rootColor := colors.Success
	if resp.Error {
		capitalizeMessage(data)
		rootColor = colors.Error
	}

	accent := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colors.Accent))
	t := buildTreeFromMap("◉", data, accent)
	t.Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle).
		RootStyle(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(rootColor))).
		ItemStyle(itemStyle)

	_, _ = fmt.Fprintln(output, t.String())
}
