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
	"atrack/internal/common/reply"
	"atrack/internal/common/wrapper"
	"context"

	"github.com/urfave/cli/v3"
)

// newErrorResponse создаёт ответ с ошибкой и указанным сообщением.
func newErrorResponse(message string) reply.APIResponse {
	app.Log.Error(message)
	return reply.Fail(message)
}

var (
	withSpinnerWrapper = wrapper.WithOptions(wrapper.WithSpinner, NewActions, newErrorResponse)
	noSpinnerWrapper   = wrapper.WithOptions(wrapper.NoSpinner, NewActions, newErrorResponse)
)

// respond выводит ответ действия или ошибку
func respond(ctx context.Context, resp *reply.APIResponse, err error) error {
	if err != nil {
		return reply.CliResponse(ctx, newErrorResponse(err.Error()))
	}
	return reply.CliResponse(ctx, *resp)
}

func CommandList(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:    "screen",
		Aliases: []string{"s"},
		Usage:   app.T_("Demo screen: a number and a colour changed by slow, unreliable tasks"),
		Commands: []*cli.Command{
			{
				Name:  "increment",
				Usage: app.T_("Increment the number"),
				Action: withSpinnerWrapper(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					resp, err := actions.Increment(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "color",
				Usage: app.T_("Replace the colour with a random one"),
				Action: withSpinnerWrapper(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					resp, err := actions.ChangeColor(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "burst",
				Usage: app.T_("Run several tasks at once"),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Usage:   app.T_("Number of tasks"),
						Aliases: []string{"n"},
						Value:   5,
					},
				},
				Action: withSpinnerWrapper(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					resp, err := actions.Burst(ctx, int(cmd.Int("count")))
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "state",
				Usage: app.T_("Show the screen state"),
				Action: noSpinnerWrapper(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					resp, err := actions.State(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "interactive",
				Usage: app.T_("Open the interactive screen"),
				Action: noSpinnerWrapper(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					if err := RunInteractive(ctx, actions); err != nil {
						return reply.CliResponse(ctx, newErrorResponse(err.Error()))
					}
					return nil
				}),
			},
		},
	}
}
