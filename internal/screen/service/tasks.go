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

package service

import (
	"atrack/internal/common/app"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// ErrTaskFailed случайный отказ задачи
var ErrTaskFailed = errors.New("task failed")

const (
	// failureRate доля задач, завершающихся ошибкой
	failureRate = 1.0 / 3

	maxIncrementDelay = time.Second
	minColorDelay     = time.Second
	maxColorDelay     = 3 * time.Second
)

// Color цвет, каждый канал в диапазоне [0, 1]
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// DefaultColor начальный серый цвет
func DefaultColor() Color {
	return Color{Red: 0.5, Green: 0.5, Blue: 0.5}
}

// Hex возвращает цвет в виде #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.Red), channel(c.Green), channel(c.Blue))
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// Random источник случайных чисел в [0, 1)
type Random interface {
	Float64() float64
}

// lockedRandom делает *rand.Rand безопасным для параллельных задач
type lockedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (r *lockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// NewRandom создаёт потокобезопасный источник с заданным зерном
func NewRandom(seed uint64) Random {
	return &lockedRandom{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Tasks асинхронные задачи экрана со случайными задержками и отказами
type Tasks struct {
	clock clock.Clock
	rnd   Random
}

// NewTasks создаёт сервис задач. nil означает реальные часы и случайное зерно.
func NewTasks(clk clock.Clock, rnd Random) *Tasks {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if rnd == nil {
		rnd = NewRandom(rand.Uint64())
	}
	return &Tasks{clock: clk, rnd: rnd}
}

// IncrementNumber возвращает from+1 через случайную задержку до секунды
func (t *Tasks) IncrementNumber(ctx context.Context, from int) (int, error) {
	if t.fails() {
		return 0, fmt.Errorf(app.T_("number increment: %w"), ErrTaskFailed)
	}

	delay := time.Duration(t.rnd.Float64() * float64(maxIncrementDelay))
	if err := t.sleep(ctx, delay); err != nil {
		return 0, err
	}

	return from + 1, nil
}

// MakeColor возвращает случайный цвет через задержку от одной до трёх секунд
func (t *Tasks) MakeColor(ctx context.Context) (Color, error) {
	if t.fails() {
		return Color{}, fmt.Errorf(app.T_("colour generation: %w"), ErrTaskFailed)
	}

	delay := minColorDelay + time.Duration(t.rnd.Float64()*float64(maxColorDelay-minColorDelay))
	if err := t.sleep(ctx, delay); err != nil {
		return Color{}, err
	}

	return Color{
		Red:   t.rnd.Float64(),
		Green: t.rnd.Float64(),
		Blue:  t.rnd.Float64(),
	}, nil
}

func (t *Tasks) fails() bool {
	return t.rnd.Float64() < failureRate
}

func (t *Tasks) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := t.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
