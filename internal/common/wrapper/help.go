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

package wrapper

import (
	"atrack/internal/common/app"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
)

// helpBlocks части шаблона справки, собираемые в нужном порядке
type helpBlocks struct {
	name, usage, version, description, commands, flags, global string
}

func newHelpBlocks(accent string) helpBlocks {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	title := func(s string) string {
		return titleStyle.Render(app.T_(s))
	}

	return helpBlocks{
		name:        title("Module:") + "\n   {{template \"helpNameTemplate\" .}}",
		usage:       "\n\n" + title("Usage:") + "\n   {{if .UsageText}}{{wrap .UsageText 3}}{{else}}{{.FullName}} [command [command options]]{{end}}",
		version:     "{{if .Version}}{{if not .HideVersion}}\n\n" + title("Version:") + "\n   {{.Version}}{{end}}{{end}}",
		description: "{{if .Description}}\n\n" + title("Description:") + "\n   {{template \"descriptionTemplate\" .}}{{end}}",
		commands:    "{{if .VisibleCommands}}\n\n" + title("Commands:") + "{{template \"visibleCommandCategoryTemplate\" .}}{{end}}",
		flags:       "{{if .VisibleFlags}}\n\n" + title("Options:") + "{{template \"visibleFlagTemplate\" .}}{{end}}",
		global:      "{{if .VisiblePersistentFlags}}\n\n" + title("Global options:") + "{{template \"visiblePersistentFlagTemplate\" .}}{{end}}",
	}
}

func join(parts ...string) string {
	return strings.Join(parts, "") + "\n"
}

// SetupHelpTemplates переопределяет шаблоны справки корневой команды, команд и подкоманд
func SetupHelpTemplates(colors app.Colors) {
	b := newHelpBlocks(colors.Accent)

	cli.RootCommandHelpTemplate = join(b.name, b.usage, b.version, b.description, b.commands, b.flags)
	cli.SubcommandHelpTemplate = join(b.name, b.usage, b.description, b.commands, b.flags)
	cli.CommandHelpTemplate = join(b.name, b.usage, b.description, b.flags, b.global)
}
