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

import "atrack/internal/common/app"

// TranslateKey переводит ключ ответа для текстового вывода
func TranslateKey(key string) string {
	switch key {
	case "message":
		return app.T_("Message")
	case "number":
		return app.T_("Number")
	case "color":
		return app.T_("Colour")
	case "red":
		return app.T_("Red")
	case "green":
		return app.T_("Green")
	case "blue":
		return app.T_("Blue")
	case "hex":
		return app.T_("Hex")
	case "busy":
		return app.T_("Busy")
	case "results":
		return app.T_("Results")
	case "succeeded":
		return app.T_("Succeeded")
	case "failed":
		return app.T_("Failed")
	case "error":
		return app.T_("Error")
	case "task":
		return app.T_("Task")
	case "name":
		return app.T_("Name")
	case "state":
		return app.T_("State")
	case "minBusyDuration":
		return app.T_("Minimum busy duration")
	case "minCompletionDelay":
		return app.T_("Minimum completion delay")
	case "version":
		return app.T_("Version")
	case "transaction":
		return app.T_("Transaction")
	default:
		return key
	}
}
