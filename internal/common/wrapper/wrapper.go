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
	"atrack/internal/activity"
	"atrack/internal/common/app"
	"atrack/internal/common/reply"
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// SpinnerMode определяет, показывать ли индикатор занятости во время команды
type SpinnerMode int

const (
	// WithSpinner - индикатор привязан к счётчику активности Actions
	WithSpinner SpinnerMode = iota
	// NoSpinner - команда сама управляет экраном
	NoSpinner
)

// BusySource Actions, которые отдают свой счётчик активности
type BusySource interface {
	Counter() *activity.Counter
}

// ApplyGlobalFlags переносит общие флаги командной строки в конфигурацию приложения
func ApplyGlobalFlags(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	appConfig := app.GetAppConfig(ctx)
	manager := appConfig.ConfigManager

	format := cmd.String("format")
	switch format {
	case app.FormatText, app.FormatJSON, app.FormatYAML:
		manager.SetFormat(format)
	default:
		return ctx, fmt.Errorf(app.T_("Unknown output format: %s"), format)
	}

	if cmd.IsSet("min-busy") {
		manager.SetMinBusyDuration(cmd.Duration("min-busy"))
	}
	if cmd.IsSet("min-delay") {
		manager.SetMinCompletionDelay(cmd.Duration("min-delay"))
	}
	if cmd.Bool("verbose") {
		app.Log.EnableStdoutLogging()
	}

	return app.WithTransaction(ctx, cmd.String("transaction")), nil
}

// WithOptions создаёт универсальный wrapper для CLI команд с поддержкой generics.
// T - тип Actions для конкретного модуля.
func WithOptions[T any](
	spinnerMode SpinnerMode,
	newActions func(*app.Config) *T,
	errorResponse func(string) reply.APIResponse,
) func(func(context.Context, *cli.Command, *T) error) cli.ActionFunc {
	return func(actionFunc func(context.Context, *cli.Command, *T) error) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			appConfig := app.GetAppConfig(ctx)

			ctx, err := ApplyGlobalFlags(ctx, cmd)
			if err != nil {
				return reply.CliResponse(ctx, errorResponse(err.Error()))
			}

			actions := newActions(appConfig)

			if source, ok := any(actions).(BusySource); ok && spinnerMode == WithSpinner {
				unbind := reply.BindSpinner(appConfig, source.Counter())
				defer unbind()
			}

			return actionFunc(ctx, cmd, actions)
		}
	}
}
