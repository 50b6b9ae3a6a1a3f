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
	"time"

	"k8s.io/utils/clock"
)

// Clock источник текущего времени и отложенных вызовов.
// В рабочем режиме используется clock.RealClock, в тестах FakeClock.
type Clock = clock.WithDelayedExecution

// Dispatcher переносит доставку уведомления в выбранный контекст выполнения,
// например в главный цикл интерфейса. Должен сохранять порядок вызовов.
type Dispatcher func(fn func())

// Observer получает служебные события счётчика, используется для метрик.
type Observer interface {
	Acquired()
	Released()
	ReleaseDeferred(delay time.Duration)
	Completed(name string, err error)
}

type nopObserver struct{}

func (nopObserver) Acquired()                     {}
func (nopObserver) Released()                     {}
func (nopObserver) ReleaseDeferred(time.Duration) {}
func (nopObserver) Completed(string, error)       {}

type options struct {
	minBusy  time.Duration
	clock    Clock
	dispatch Dispatcher
	observer Observer
}

// Option настраивает Counter.
type Option func(*options)

// WithMinBusyDuration задаёт минимальную длительность занятого состояния.
func WithMinBusyDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.minBusy = d
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithDispatcher задаёт контекст доставки уведомлений подписчикам.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) {
		o.dispatch = d
	}
}

// WithObserver подключает наблюдателя служебных событий.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
