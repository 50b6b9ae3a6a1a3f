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

package activity

import (
	"atrack/internal/common/app"
	"context"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// Operation асинхронная операция, результат которой отслеживается.
type Operation[T any] func(ctx context.Context) (T, error)

type trackOptions struct {
	name        string
	minDelay    time.Duration
	skipOnError bool
}

// TrackOption настраивает отдельный вызов Track.
type TrackOption func(*trackOptions)

// WithMinCompletionDelay задерживает выдачу результата вызывающему до d с
// момента старта, даже если операция завершилась раньше. На счётчик не влияет.
func WithMinCompletionDelay(d time.Duration) TrackOption {
	return func(o *trackOptions) {
		if d > 0 {
			o.minDelay = d
		}
	}
}

// WithSkipDelayOnError отдаёт ошибку сразу, без minCompletionDelay.
// По умолчанию задержка применяется одинаково к успеху и ошибке.
func WithSkipDelayOnError() TrackOption {
	return func(o *trackOptions) {
		o.skipOnError = true
	}
}

// WithName задаёт имя операции для логов и метрик.
func WithName(name string) TrackOption {
	return func(o *trackOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// Track оборачивает op: при каждом вызове открывает Guard, выполняет op,
// закрывает Guard по завершению самой операции и возвращает её результат без
// изменений, при необходимости выдержав minCompletionDelay.
func Track[T any](c *Counter, op Operation[T], opts ...TrackOption) Operation[T] {
	o := trackOptions{name: "operation"}
	for _, opt := range opts {
		opt(&o)
	}

	return func(ctx context.Context) (T, error) {
		id := uuid.NewString()

		var withheld clock.Timer
		if o.minDelay > 0 {
			withheld = c.clock.NewTimer(o.minDelay)
			defer withheld.Stop()
		}

		app.Log.Debugf("activity: %s [%s] started", o.name, id)
		result, err := runGuarded(ctx, c, op)
		c.observer.Completed(o.name, err)
		app.Log.Debugf("activity: %s [%s] finished, err=%v", o.name, id, err)

		if withheld == nil || (err != nil && o.skipOnError) {
			return result, err
		}

		select {
		case <-withheld.C():
		case <-ctx.Done():
			// вызывающий ушёл, ждать дальше незачем
		}
		return result, err
	}
}

// Run выполняет op под отслеживанием и ждёт результат.
func Run[T any](ctx context.Context, c *Counter, op Operation[T], opts ...TrackOption) (T, error) {
	return Track(c, op, opts...)(ctx)
}

// runGuarded закрывает Guard на любом пути выхода из op, включая панику.
func runGuarded[T any](ctx context.Context, c *Counter, op Operation[T]) (T, error) {
	g := c.Open()
	defer g.Close()
	return op(ctx)
}
