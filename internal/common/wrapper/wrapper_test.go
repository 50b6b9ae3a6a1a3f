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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

type fakeActions struct {
	counter *activity.Counter
	config  *app.Configuration
}

func (f *fakeActions) Counter() *activity.Counter {
	return f.counter
}

func newRoot(t *testing.T, action cli.ActionFunc) (*cli.Command, context.Context) {
	t.Helper()
	cm, err := app.NewConfigManager(app.BuildInfo{})
	require.NoError(t, err)
	ctx := context.WithValue(context.Background(), app.AppConfigKey, app.NewAppConfig(cm, app.NewDBusManager()))

	root := &cli.Command{
		Name: "atrack",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: app.FormatText},
			&cli.StringFlag{Name: "transaction"},
			&cli.DurationFlag{Name: "min-busy"},
			&cli.DurationFlag{Name: "min-delay"},
			&cli.BoolFlag{Name: "verbose"},
		},
		Commands: []*cli.Command{
			{Name: "run", Action: action},
		},
	}
	return root, ctx
}

func errorResponse(message string) reply.APIResponse {
	return reply.Fail(message)
}

// TestWithOptions_AppliesFlags тестирует перенос флагов в конфигурацию и контекст
func TestWithOptions_AppliesFlags(t *testing.T) {
	var (
		gotTx      string
		gotActions *fakeActions
	)

	newActions := func(appConfig *app.Config) *fakeActions {
		return &fakeActions{
			counter: activity.NewCounter(),
			config:  appConfig.ConfigManager.GetConfig(),
		}
	}

	action := WithOptions(WithSpinner, newActions, errorResponse)(
		func(ctx context.Context, cmd *cli.Command, actions *fakeActions) error {
			gotTx = app.GetTransaction(ctx)
			gotActions = actions
			return nil
		})

	root, ctx := newRoot(t, action)
	err := root.Run(ctx, []string{"atrack", "--format", "json", "--transaction", "tx-9", "--min-busy", "250ms", "--min-delay", "0s", "run"})
	require.NoError(t, err)

	require.NotNil(t, gotActions)
	assert.Equal(t, "tx-9", gotTx)
	assert.Equal(t, app.FormatJSON, gotActions.config.Format)
	assert.Equal(t, 250*time.Millisecond, gotActions.config.MinBusyDuration)
	assert.Zero(t, gotActions.config.MinCompletionDelay)
}

// TestWithOptions_UnknownFormat тестирует отказ от неизвестного формата
func TestWithOptions_UnknownFormat(t *testing.T) {
	called := false
	newActions := func(*app.Config) *fakeActions { return &fakeActions{counter: activity.NewCounter()} }

	action := WithOptions(NoSpinner, newActions, errorResponse)(
		func(context.Context, *cli.Command, *fakeActions) error {
			called = true
			return nil
		})

	root, ctx := newRoot(t, action)
	err := root.Run(ctx, []string{"atrack", "--format", "xml", "run"})

	assert.ErrorIs(t, err, reply.ErrResponse)
	assert.False(t, called)
}

// TestSetupHelpTemplates тестирует сборку шаблонов справки
func TestSetupHelpTemplates(t *testing.T) {
	saved := []string{cli.RootCommandHelpTemplate, cli.SubcommandHelpTemplate, cli.CommandHelpTemplate}
	t.Cleanup(func() {
		cli.RootCommandHelpTemplate, cli.SubcommandHelpTemplate, cli.CommandHelpTemplate = saved[0], saved[1], saved[2]
	})

	SetupHelpTemplates(app.Colors{Accent: "#a2734c"})

	assert.Contains(t, cli.RootCommandHelpTemplate, "Version:")
	assert.Contains(t, cli.RootCommandHelpTemplate, "visibleCommandCategoryTemplate")
	assert.NotContains(t, cli.SubcommandHelpTemplate, "Version:")
	assert.Contains(t, cli.CommandHelpTemplate, "visiblePersistentFlagTemplate")
	assert.NotContains(t, cli.CommandHelpTemplate, "visibleCommandCategoryTemplate")
}

// TestWithOptions_GeneratedTransaction тестирует создание транзакции без флага
func TestWithOptions_GeneratedTransaction(t *testing.T) {
	var gotTx string
	newActions := func(*app.Config) *fakeActions { return &fakeActions{counter: activity.NewCounter()} }

	action := WithOptions(NoSpinner, newActions, errorResponse)(
		func(ctx context.Context, cmd *cli.Command, actions *fakeActions) error {
			gotTx = app.GetTransaction(ctx)
			return nil
		})

	root, ctx := newRoot(t, action)
	require.NoError(t, root.Run(ctx, []string{"atrack", "--format", "json", "run"}))

	_, err := uuid.Parse(gotTx)
	assert.NoError(t, err)
}
