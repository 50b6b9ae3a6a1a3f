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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

// sequenceRandom возвращает заданные значения по кругу
type sequenceRandom struct {
	mu     sync.Mutex
	values []float64
	i      int
}

func (r *sequenceRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.values[r.i%len(r.values)]
	r.i++
	return v
}

func newFakeClock() *testingclock.FakeClock {
	return testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

// TestIncrementNumber_Fails тестирует случайный отказ
func TestIncrementNumber_Fails(t *testing.T) {
	tasks := NewTasks(newFakeClock(), &sequenceRandom{values: []float64{0.1}})

	_, err := tasks.IncrementNumber(context.Background(), 3)
	assert.True(t, errors.Is(err, ErrTaskFailed))
}

// TestIncrementNumber_Immediate тестирует успех без задержки
func TestIncrementNumber_Immediate(t *testing.T) {
	tasks := NewTasks(newFakeClock(), &sequenceRandom{values: []float64{0.5, 0}})

	n, err := tasks.IncrementNumber(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

// TestIncrementNumber_Delayed тестирует ожидание случайной задержки
func TestIncrementNumber_Delayed(t *testing.T) {
	clk := newFakeClock()
	tasks := NewTasks(clk, &sequenceRandom{values: []float64{0.9, 0.5}})

	done := make(chan int, 1)
	go func() {
		n, _ := tasks.IncrementNumber(context.Background(), 0)
		done <- n
	}()

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(499 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("increment finished before its delay")
	default:
	}

	clk.Step(time.Millisecond)
	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("increment did not finish")
	}
}

// TestMakeColor тестирует генерацию цвета после задержки
func TestMakeColor(t *testing.T) {
	clk := newFakeClock()
	tasks := NewTasks(clk, &sequenceRandom{values: []float64{0.9, 0.5, 0.1, 0.2, 0.3}})

	done := make(chan Color, 1)
	go func() {
		c, err := tasks.MakeColor(context.Background())
		assert.NoError(t, err)
		done <- c
	}()

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(2 * time.Second)

	select {
	case c := <-done:
		assert.Equal(t, Color{Red: 0.1, Green: 0.2, Blue: 0.3}, c)
	case <-time.After(time.Second):
		t.Fatal("colour was not generated")
	}
}

// TestMakeColor_Fails тестирует случайный отказ генерации цвета
func TestMakeColor_Fails(t *testing.T) {
	tasks := NewTasks(newFakeClock(), &sequenceRandom{values: []float64{0.3}})

	_, err := tasks.MakeColor(context.Background())
	assert.ErrorIs(t, err, ErrTaskFailed)
}

// TestTasks_Cancelled тестирует прерывание ожидания отменой контекста
func TestTasks_Cancelled(t *testing.T) {
	tasks := NewTasks(newFakeClock(), &sequenceRandom{values: []float64{0.9, 0.5}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tasks.IncrementNumber(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestColor_Hex тестирует преобразование цвета в hex
func TestColor_Hex(t *testing.T) {
	tests := []struct {
		name  string
		color Color
		hex   string
	}{
		{name: "default", color: DefaultColor(), hex: "#808080"},
		{name: "pure", color: Color{Red: 1, Green: 0, Blue: 0.5}, hex: "#ff0080"},
		{name: "clamped", color: Color{Red: 2, Green: -1, Blue: 0}, hex: "#ff0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hex, tt.color.Hex())
		})
	}
}

// TestNewRandom тестирует диапазон значений источника
func TestNewRandom(t *testing.T) {
	rnd := NewRandom(42)
	for i := 0; i < 100; i++ {
		v := rnd.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}
