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
	"sync"
	"sync/atomic"
)

// Subscription подписка на сигнал занятости.
// У каждой подписки своя очередь значений, которую в каждый момент разбирает
// только одна горутина, поэтому обработчик не вызывается параллельно сам с собой.
type Subscription struct {
	fn     func(bool)
	active atomic.Bool
	owner  *broadcaster

	mu         sync.Mutex
	pending    []bool
	delivering bool
}

// Unsubscribe отменяет подписку. Повторный вызов ничего не делает.
func (s *Subscription) Unsubscribe() {
	s.owner.unsubscribe(s)
}

// broadcaster хранит последнее значение и рассылает только изменения.
type broadcaster struct {
	mu       sync.Mutex
	value    bool
	seq      uint64
	subs     []*Subscription
	dispatch Dispatcher
}

func newBroadcaster(dispatch Dispatcher) *broadcaster {
	return &broadcaster{dispatch: dispatch}
}

func (b *broadcaster) current() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// subscribe регистрирует fn и доставляет текущее значение на горутине
// вызывающего до возврата. Изменения, пришедшие в это время, идут следом.
func (b *broadcaster) subscribe(fn func(bool)) *Subscription {
	s := &Subscription{fn: fn, owner: b, delivering: true}
	s.active.Store(true)

	b.mu.Lock()
	b.subs = append(b.subs, s)
	s.pending = append(s.pending, b.value)
	b.mu.Unlock()

	b.run(s)
	return s
}

func (b *broadcaster) unsubscribe(s *Subscription) {
	if s == nil || !s.active.CompareAndSwap(true, false) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == s {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			break
		}
	}
}

// publish применяет значение перехода с номером seq. Переходы, которые старше
// уже применённого, отбрасываются: так порядок рассылки совпадает с порядком
// изменений счётчика, хотя публикация идёт вне его блокировки.
func (b *broadcaster) publish(seq uint64, value bool) {
	b.mu.Lock()
	if seq <= b.seq {
		b.mu.Unlock()
		return
	}
	b.seq = seq
	if value == b.value {
		b.mu.Unlock()
		return
	}
	b.value = value

	// Очереди пополняются под b.mu, иначе два конкурентных перехода могли бы
	// лечь в очередь подписчика в обратном порядке.
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	for _, s := range subs {
		s.mu.Lock()
		s.pending = append(s.pending, value)
		s.mu.Unlock()
	}
	b.mu.Unlock()

	for _, s := range subs {
		b.drain(s)
	}
}

// drain разбирает очередь подписки, если её не разбирает другая горутина.
// Вызов из обработчика той же подписки только оставляет значение в очереди,
// оно будет доставлено после возврата из обработчика.
func (b *broadcaster) drain(s *Subscription) {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	s.mu.Unlock()

	b.run(s)
}

// run доставляет значения из очереди, пока она не опустеет. Вызывающий уже
// владеет флагом delivering.
func (b *broadcaster) run(s *Subscription) {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.pending = nil
			s.mu.Unlock()
			return
		}
		value := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		b.deliver(s, value)
	}
}

func (b *broadcaster) deliver(s *Subscription, value bool) {
	if !s.active.Load() {
		return
	}
	if b.dispatch == nil {
		invoke(s, value)
		return
	}
	b.dispatch(func() {
		if s.active.Load() {
			invoke(s, value)
		}
	})
}

// invoke вызывает обработчик. Паника обработчика не должна дойти до
// Increment и Decrement, иначе вызывающий не успеет закрыть Guard.
func invoke(s *Subscription, value bool) {
	defer func() {
		if r := recover(); r != nil {
			app.Log.Errorf("activity: subscriber panicked on %t: %v", value, r)
		}
	}()
	s.fn(value)
}
