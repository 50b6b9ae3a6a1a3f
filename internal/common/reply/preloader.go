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

import (
	"atrack/internal/activity"
	"atrack/internal/common/app"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	p             *tea.Program
	doneChan      chan struct{}
	tasksDoneChan chan struct{}
	mu            sync.Mutex
	lastLines     int
	lastRender    string
)

// TaskUpdateMsg обновление строки задачи в индикаторе
type TaskUpdateMsg struct {
	taskID   string
	viewName string
	state    string
}

type task struct {
	id       string
	viewName string
	state    string
}

type model struct {
	spinner      spinner.Model
	tasksSpinner spinner.Model
	tasks        []task
	tasksDone    chan struct{}
}

func spinnerEnabled(appConfig *app.Config) bool {
	return appConfig.ConfigManager.GetConfig().Format == app.FormatText && IsTTY()
}

// CreateSpinner Создание и запуск Bubble Tea
func CreateSpinner(appConfig *app.Config) {
	if !spinnerEnabled(appConfig) {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	if p != nil {
		return
	}
	doneChan = make(chan struct{})
	tasksDoneChan = make(chan struct{})

	m := newModel(appConfig.ConfigManager.GetColors().Spinner)
	m.tasksDone = tasksDoneChan
	p = tea.NewProgram(
		m,
		tea.WithOutput(os.Stdout),
		tea.WithInput(nil),
	)

	done := doneChan
	program := p
	go func() {
		if _, err := program.Run(); err != nil {
			app.Log.Error(err.Error())
		}
		close(done)
	}()
}

// StopSpinner Остановка и очистка вывода, завершённые задачи остаются на экране
func StopSpinner(appConfig *app.Config) {
	if !spinnerEnabled(appConfig) {
		return
	}

	mu.Lock()
	if p == nil {
		mu.Unlock()
		return
	}
	tasksDone := tasksDoneChan
	mu.Unlock()

	// Ждём, пока все задачи не завершены, но не более 100мс
	select {
	case <-tasksDone:
	case <-time.After(100 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		return
	}

	p.Quit()
	<-doneChan
	p = nil

	if lastLines == 0 {
		return
	}

	// Подняться к первой строке блока и очистить его
	for i := 0; i < lastLines-1; i++ {
		fmt.Print("\033[F")
	}
	for i := 0; i < lastLines; i++ {
		fmt.Print("\r\033[2K")
		if i < lastLines-1 {
			fmt.Print("\033[E")
		}
	}
	for i := 0; i < lastLines-1; i++ {
		fmt.Print("\033[F")
	}

	// Переотрисовать без строки спиннера
	lines := strings.Split(lastRender, "\n")
	if len(lines) > 1 {
		fmt.Print(strings.Join(lines[1:], "\n"))
		fmt.Print("\n")
	}
	lastLines = 0
	lastRender = ""
}

// UpdateTask отправить состояние задачи в индикатор. Строка задачи определяется
// по taskID, поэтому одновременные запуски одной задачи видны отдельно.
//
//	UpdateTask(appConfig, id, "Incrementing number", StateBefore)
//	UpdateTask(appConfig, id, "Incrementing number", StateAfter)
func UpdateTask(appConfig *app.Config, taskID string, viewName string, state string) {
	if !spinnerEnabled(appConfig) {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	if p != nil {
		p.Send(TaskUpdateMsg{
			taskID:   taskID,
			viewName: viewName,
			state:    state,
		})
	}
}

// BindSpinner показывает индикатор, пока счётчик занят. Возвращает функцию отвязки,
// которая дожидается остановки фоновой горутины.
func BindSpinner(appConfig *app.Config, counter *activity.Counter) (unbind func()) {
	if !spinnerEnabled(appConfig) {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	changes := counter.Changes(ctx)

	go func() {
		defer close(done)
		for busy := range changes {
			if busy {
				CreateSpinner(appConfig)
			} else {
				StopSpinner(appConfig)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func newModel(color string) model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(color))

	ts := spinner.New()
	ts.Spinner = spinner.Jump

	return model{
		spinner:      s,
		tasksSpinner: ts,
		tasks:        []task{},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tasksSpinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd1, cmd2 tea.Cmd
		m.spinner, cmd1 = m.spinner.Update(msg)
		m.tasksSpinner, cmd2 = m.tasksSpinner.Update(msg)
		return m, tea.Batch(cmd1, cmd2)

	case TaskUpdateMsg:
		return m.updateTask(msg), nil

	default:
		return m, nil
	}
}

func (m model) updateTask(msg TaskUpdateMsg) model {
	updated := false
	for i, t := range m.tasks {
		if t.id == msg.taskID {
			m.tasks[i].viewName = msg.viewName
			m.tasks[i].state = msg.state
			updated = true
			break
		}
	}

	// Первая посылка задачи всегда BEFORE, AFTER без BEFORE игнорируем
	if !updated && msg.state == StateBefore {
		m.tasks = append(m.tasks, task{
			id:       msg.taskID,
			viewName: msg.viewName,
			state:    msg.state,
		})
	}

	if m.tasksDone != nil && m.allFinished() {
		select {
		case <-m.tasksDone:
		default:
			close(m.tasksDone)
		}
	}

	return m
}

func (m model) allFinished() bool {
	for _, t := range m.tasks {
		if t.state != StateAfter {
			return false
		}
	}
	return true
}

// View общее отображение
func (m model) View() string {
	s := fmt.Sprintf("\r\033[K%s \033[33m%s\033[0m", m.spinner.View(), app.T_("Working"))

	for _, t := range m.tasks {
		if t.state == StateAfter {
			s += fmt.Sprintf("\n[✓] %s", t.viewName)
		} else {
			s += fmt.Sprintf("\n[%s] %s", m.tasksSpinner.View(), t.viewName)
		}
	}

	lastRender = s
	lastLines = strings.Count(s, "\n") + 1
	return s
}
