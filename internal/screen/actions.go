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

import (
	"atrack/internal/activity"
	"atrack/internal/common/app"
	"atrack/internal/common/metrics"
	"atrack/internal/common/reply"
	"atrack/internal/screen/service"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	taskIncrement = "screen.Increment"
	taskColor     = "screen.ChangeColor"
	taskBurst     = "screen.Burst"
)

// Actions объединяет действия экрана над общим счётчиком активности сессии.
type Actions struct {
	appConfig *app.Config
	counter   *activity.Counter
	collector *metrics.Collector
	tasks     *service.Tasks
	minDelay  time.Duration

	mu    sync.Mutex
	state State
}

// NewActionsWithDeps создаёт новый экземпляр Actions с ручными управлением зависимостями
func NewActionsWithDeps(
	appConfig *app.Config,
	counter *activity.Counter,
	collector *metrics.Collector,
	tasks *service.Tasks,
) *Actions {
	return &Actions{
		appConfig: appConfig,
		counter:   counter,
		collector: collector,
		tasks:     tasks,
		minDelay:  appConfig.ConfigManager.GetConfig().MinCompletionDelay,
		state: State{
			Number: 0,
			Color:  service.DefaultColor(),
		},
	}
}

// NewActions создаёт новый экземпляр Actions.
func NewActions(appConfig *app.Config) *Actions {
	collector := metrics.NewCollector()
	counter := activity.NewCounter(
		activity.WithMinBusyDuration(appConfig.ConfigManager.GetConfig().MinBusyDuration),
		activity.WithObserver(collector),
	)
	collector.Watch(counter)

	return NewActionsWithDeps(appConfig, counter, collector, service.NewTasks(nil, nil))
}

// Counter счётчик активности сессии
func (a *Actions) Counter() *activity.Counter {
	return a.counter
}

// Collector метрики сессии
func (a *Actions) Collector() *metrics.Collector {
	return a.collector
}

// Snapshot возвращает копию текущего состояния
func (a *Actions) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Increment увеличивает число на экране
func (a *Actions) Increment(ctx context.Context) (*reply.APIResponse, error) {
	n, err := a.runIncrement(ctx)
	if err != nil {
		return nil, err
	}

	return &reply.APIResponse{
		Data: IncrementResponse{
			Message: app.T_("Number incremented"),
			Number:  n,
		},
		Error: false,
	}, nil
}

// ChangeColor заменяет цвет экрана случайным
func (a *Actions) ChangeColor(ctx context.Context) (*reply.APIResponse, error) {
	c, err := a.runColor(ctx)
	if err != nil {
		return nil, err
	}

	return &reply.APIResponse{
		Data: ColorResponse{
			Message: app.T_("Colour changed"),
			Color:   newColorView(c),
		},
		Error: false,
	}, nil
}

// Burst запускает n задач одновременно, чётные увеличивают число, нечётные меняют цвет.
// Отказ одной задачи не отменяет остальные.
func (a *Actions) Burst(ctx context.Context, n int) (*reply.APIResponse, error) {
	if n <= 0 {
		return nil, errors.New(app.T_("The number of tasks must be positive"))
	}

	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName(taskBurst))

	results := make([]BurstResult, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			var err error
			if i%2 == 0 {
				results[i].Task = taskIncrement
				_, err = a.runIncrement(ctx)
			} else {
				results[i].Task = taskColor
				_, err = a.runColor(ctx)
			}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName(taskBurst))

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	state := a.Snapshot()
	return &reply.APIResponse{
		Data: BurstResponse{
			Message:   fmt.Sprintf(app.TN_("%d task finished", "%d tasks finished", n), n),
			Succeeded: n - failed,
			Failed:    failed,
			Results:   results,
			Number:    state.Number,
			Color:     newColorView(state.Color),
		},
		Error: false,
	}, nil
}

// State возвращает состояние экрана и признак занятости
func (a *Actions) State(_ context.Context) (*reply.APIResponse, error) {
	state := a.Snapshot()
	return &reply.APIResponse{
		Data: StateResponse{
			Message: app.T_("Screen state"),
			Number:  state.Number,
			Color:   newColorView(state.Color),
			Busy:    a.counter.Busy(),
		},
		Error: false,
	}, nil
}

func (a *Actions) runIncrement(ctx context.Context) (int, error) {
	from := a.Snapshot().Number
	id := reply.WithEventID(uuid.NewString())

	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName(taskIncrement), id)
	n, err := activity.Run(ctx, a.counter, func(ctx context.Context) (int, error) {
		return a.tasks.IncrementNumber(ctx, from)
	}, activity.WithMinCompletionDelay(a.minDelay), activity.WithName(taskIncrement))
	reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName(taskIncrement), id, reply.WithEventError(err))

	if err != nil {
		app.Log.Debugf("increment failed: %v", err)
		return 0, err
	}

	a.mu.Lock()
	a.state.Number = n
	a.mu.Unlock()
	return n, nil
}

func (a *Actions) runColor(ctx context.Context) (service.Color, error) {
	id := reply.WithEventID(uuid.NewString())

	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName(taskColor), id)
	c, err := activity.Run(ctx, a.counter, a.tasks.MakeColor,
		activity.WithMinCompletionDelay(a.minDelay), activity.WithName(taskColor))
	reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName(taskColor), id, reply.WithEventError(err))

	if err != nil {
		app.Log.Debugf("colour change failed: %v", err)
		return service.Color{}, err
	}

	a.mu.Lock()
	a.state.Color = c
	a.mu.Unlock()
	return c, nil
}
