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
	"sync"
	"time"

	"k8s.io/utils/clock"
)

const (
	msgNegativeCount = "activity: Decrement called without a matching Increment"
	msgGuardReleased = "activity: guard closed more than once"
)

// Counter считает открытые операции и решает, когда менять видимое состояние.
// Нулевое значение не используется, создавайте через NewCounter.
type Counter struct {
	mu        sync.Mutex
	count     int
	busySince time.Time
	seq       uint64

	minBusy  time.Duration
	clock    Clock
	observer Observer
	states   *broadcaster
}

// NewCounter создаёт счётчик. По умолчанию минимальной длительности нет,
// время берётся из clock.RealClock, уведомления доставляются синхронно.
func NewCounter(opts ...Option) *Counter {
	o := options{
		clock:    clock.RealClock{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Counter{
		minBusy:  o.minBusy,
		clock:    o.clock,
		observer: o.observer,
		states:   newBroadcaster(o.dispatch),
	}
}

// MinBusyDuration возвращает настроенную минимальную длительность занятости.
func (c *Counter) MinBusyDuration() time.Duration {
	return c.minBusy
}

// Increment регистрирует начало операции.
func (c *Counter) Increment() {
	c.mu.Lock()
	c.count++
	if c.count != 1 {
		c.mu.Unlock()
		return
	}
	c.busySince = c.clock.Now()
	seq := c.nextSeq()
	c.mu.Unlock()

	c.states.publish(seq, true)
}

// Decrement регистрирует завершение операции. Вызывается ровно один раз на
// каждый Increment, иначе паника.
func (c *Counter) Decrement() {
	c.mu.Lock()
	if c.count <= 0 {
		c.mu.Unlock()
		panic(msgNegativeCount)
	}

	if c.count > 1 {
		c.count--
		c.mu.Unlock()
		return
	}

	// Последний держатель: если окно ещё не истекло, счётчик остаётся занятым
	// до busySince+minBusy.
	if remaining := c.remainingLocked(); remaining > 0 {
		c.mu.Unlock()
		c.observer.ReleaseDeferred(remaining)
		app.Log.Debugf("activity: idle deferred for %s", remaining)
		c.clock.AfterFunc(remaining, c.release)
		return
	}

	seq := c.resetLocked()
	c.mu.Unlock()

	c.states.publish(seq, false)
}

// release выполняет отложенное уменьшение. Отмене не подлежит: срабатывает в
// назначенное время и публикует false, только если других операций нет.
func (c *Counter) release() {
	c.mu.Lock()
	c.count--
	if c.count > 0 {
		c.mu.Unlock()
		app.Log.Debug("activity: deferred release fired while busy")
		return
	}

	seq := c.resetLocked()
	c.mu.Unlock()

	app.Log.Debug("activity: deferred release fired")
	c.states.publish(seq, false)
}

func (c *Counter) remainingLocked() time.Duration {
	if c.minBusy <= 0 {
		return 0
	}
	return c.minBusy - c.clock.Since(c.busySince)
}

func (c *Counter) resetLocked() uint64 {
	c.count = 0
	c.busySince = time.Time{}
	return c.nextSeq()
}

// nextSeq нумерует переходы через ноль, вызывается под c.mu.
func (c *Counter) nextSeq() uint64 {
	c.seq++
	return c.seq
}

// Busy возвращает последнее опубликованное значение.
func (c *Counter) Busy() bool {
	return c.states.current()
}

// Subscribe подписывает fn на сигнал занятости. fn получает текущее значение
// на горутине вызывающего до возврата из Subscribe, затем каждое изменение до
// отписки. С WithDispatcher значение передаётся диспетчеру до возврата.
func (c *Counter) Subscribe(fn func(busy bool)) *Subscription {
	return c.states.subscribe(fn)
}

// Unsubscribe отменяет подписку. Допускается вызов из самого обработчика.
func (c *Counter) Unsubscribe(s *Subscription) {
	c.states.unsubscribe(s)
}

// Changes возвращает канал с последним значением сигнала. Непрочитанное
// значение вытесняется более новым, поэтому читатель всегда видит актуальное
// состояние. Канал закрывается после отмены ctx.
func (c *Counter) Changes(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)

	var (
		mu     sync.Mutex
		closed bool
	)
	sub := c.Subscribe(func(busy bool) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-ch:
		default:
		}
		ch <- busy
	})

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch
}
