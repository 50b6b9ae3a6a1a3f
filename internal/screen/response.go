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

import "atrack/internal/screen/service"

// State состояние экрана
type State struct {
	Number int
	Color  service.Color
}

// ColorView цвет для вывода
type ColorView struct {
	Hex   string  `json:"hex"`
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

func newColorView(c service.Color) ColorView {
	return ColorView{Hex: c.Hex(), Red: c.Red, Green: c.Green, Blue: c.Blue}
}

// IncrementResponse структура ответа для Increment метода
type IncrementResponse struct {
	Message string `json:"message"`
	Number  int    `json:"number"`
}

// ColorResponse структура ответа для ChangeColor метода
type ColorResponse struct {
	Message string    `json:"message"`
	Color   ColorView `json:"color"`
}

// BurstResult результат одной задачи из Burst
type BurstResult struct {
	Task  string `json:"task"`
	Error string `json:"error,omitempty"`
}

// BurstResponse структура ответа для Burst метода
type BurstResponse struct {
	Message   string        `json:"message"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []BurstResult `json:"results"`
	Number    int           `json:"number"`
	Color     ColorView     `json:"color"`
}

// StateResponse структура ответа для State метода
type StateResponse struct {
	Message string    `json:"message"`
	Number  int       `json:"number"`
	Color   ColorView `json:"color"`
	Busy    bool      `json:"busy"`
}
