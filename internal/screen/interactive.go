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
	"atrack/internal/common/app"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type busyMsg bool

type changesClosedMsg struct{}

type resultMsg struct {
	task string
	err  error
}

type interactiveModel struct {
	ctx     context.Context
	actions *Actions
	changes <-chan bool
	spinner spinner.Model
	colors  app.Colors

	busy    bool
	state   State
	errLine string
}

// RunInteractive открывает интерактивный экран и блокирует до выхода пользователя
func RunInteractive(ctx context.Context, actions *Actions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newInteractiveModel(ctx, actions)
	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}

func newInteractiveModel(ctx context.Context, actions *Actions) interactiveModel {
	colors := actions.appConfig.ConfigManager.GetColors()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(colors.Spinner))

	return interactiveModel{
		ctx:     ctx,
		actions: actions,
		changes: actions.Counter().Changes(ctx),
		spinner: s,
		colors:  colors,
		state:   actions.Snapshot(),
	}
}

// waitForBusy ждёт следующее значение сигнала занятости
func waitForBusy(ch <-chan bool) tea.Cmd {
	return func() tea.Msg {
		busy, ok := <-ch
		if !ok {
			return changesClosedMsg{}
		}
		return busyMsg(busy)
	}
}

func (m interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForBusy(m.changes))
}

func (m interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "+", "=":
			return m, m.run(taskIncrement)
		case "c":
			return m, m.run(taskColor)
		}
		return m, nil

	case busyMsg:
		m.busy = bool(msg)
		return m, waitForBusy(m.changes)

	case changesClosedMsg:
		return m, nil

	case resultMsg:
		m.state = m.actions.Snapshot()
		if msg.err != nil {
			m.errLine = msg.err.Error()
		} else {
			m.errLine = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// run запускает задачу вне цикла событий, результат приходит сообщением
func (m interactiveModel) run(task string) tea.Cmd {
	ctx := m.ctx
	actions := m.actions
	return func() tea.Msg {
		var err error
		switch task {
		case taskIncrement:
			_, err = actions.runIncrement(ctx)
		case taskColor:
			_, err = actions.runColor(ctx)
		}
		return resultMsg{task: task, err: err}
	}
}

func (m interactiveModel) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.colors.Accent))
	b.WriteString(title.Render(app.T_("Activity Tracker")))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s: %d\n", app.T_("Number"), m.state.Number))

	swatch := lipgloss.NewStyle().Background(lipgloss.Color(m.state.Color.Hex())).Render("            ")
	b.WriteString(fmt.Sprintf("%s: %s %s\n\n", app.T_("Colour"), swatch, m.state.Color.Hex()))

	if m.busy {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), app.T_("Working…")))
	} else {
		b.WriteString(app.T_("Idle") + "\n")
	}

	if m.errLine != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.colors.Error))
		b.WriteString(errStyle.Render(fmt.Sprintf(app.T_("Error: %s"), m.errLine)) + "\n")
	}

	help := lipgloss.NewStyle().Faint(true)
	b.WriteString("\n" + help.Render(app.T_("+ increment • c colour • q quit")) + "\n")

	return b.String()
}
