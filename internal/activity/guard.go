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

import "sync/atomic"

// Guard регистрация одной операции. Принадлежит только этой операции и
// закрывается ровно один раз на любом пути выхода, обычно через defer.
type Guard struct {
	counter *Counter
	closed  atomic.Bool
}

// Open увеличивает счётчик и возвращает Guard, который его уменьшит.
func (c *Counter) Open() *Guard {
	c.Increment()
	c.observer.Acquired()
	return &Guard{counter: c}
}

// Close освобождает регистрацию. Повторный вызов считается ошибкой вызывающего кода.
func (g *Guard) Close() {
	if !g.closed.CompareAndSwap(false, true) {
		panic(msgGuardReleased)
	}
	g.counter.observer.Released()
	g.counter.Decrement()
}
