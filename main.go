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

package main

import (
	"atrack/internal/common/app"
	"atrack/internal/common/http_server"
	"atrack/internal/common/reply"
	"atrack/internal/common/wrapper"
	"atrack/internal/screen"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

// shutdownTimeout время на корректное завершение команды после сигнала
const shutdownTimeout = 5 * time.Second

var (
	ctx, globalCancel = context.WithCancel(context.Background())
	appConfig         *app.Config
	exitCode          atomic.Int32
)

func main() {
	var errInitial error
	appConfig, errInitial = app.InitializeAppDefault()
	if errInitial != nil {
		log.Fatal(errInitial)
	}

	wrapper.SetupHelpTemplates(appConfig.ConfigManager.GetColors())
	app.Log.Debug("Starting atrack…")

	setupSignalHandling()
	ctx = context.WithValue(ctx, app.AppConfigKey, appConfig)

	rootCommand := &cli.Command{
		Name:    "atrack",
		Usage:   app.T_("Activity Tracker"),
		Version: appConfig.ConfigManager.GetConfig().Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Usage:   app.T_("Output format: json, yaml, text"),
				Aliases: []string{"f"},
				Value:   app.FormatText,
			},
			&cli.StringFlag{
				Name:    "transaction",
				Usage:   app.T_("Internal property, adds the transaction to the output"),
				Aliases: []string{"t"},
			},
			&cli.DurationFlag{
				Name:  "min-busy",
				Usage: app.T_("Minimum time the busy state stays visible"),
				Value: appConfig.ConfigManager.GetConfig().MinBusyDuration,
			},
			&cli.DurationFlag{
				Name:  "min-delay",
				Usage: app.T_("Minimum time before an operation result is returned"),
				Value: appConfig.ConfigManager.GetConfig().MinCompletionDelay,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: app.T_("Print log messages to stdout"),
			},
		},
		Commands: []*cli.Command{
			screen.CommandList(ctx),
			{
				Name:  "serve",
				Usage: app.T_("Start HTTP server with REST API, WebSocket busy stream and metrics"),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen",
						Usage:   app.T_("Address to listen on"),
						Aliases: []string{"l"},
						Value:   appConfig.ConfigManager.GetConfig().Listen,
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: app.T_("API token required in the Authorization header"),
						Value: appConfig.ConfigManager.GetConfig().APIToken,
					},
				},
				Action: serveHTTP,
			},
			{
				Name:   "dbus-session",
				Usage:  app.T_("Start session D-Bus service org.atrack.Tracker"),
				Action: sessionDbus,
			},
			{
				Name:      "help",
				Aliases:   []string{"h"},
				Usage:     app.T_("Show the list of commands or help for each command"),
				ArgsUsage: app.T_("[command]"),
				HideHelp:  true,
			},
		},
	}

	applyCommandSetting(rootCommand)

	err := rootCommand.Run(ctx, os.Args)
	if err != nil && !errors.Is(err, reply.ErrResponse) && ctx.Err() == nil {
		cliError(err)
	}
	cleanup()

	if code := exitCode.Load(); code != 0 {
		os.Exit(int(code))
	}
	if err != nil {
		os.Exit(1)
	}
}

// setupSignalHandling отменяет общий контекст по сигналу и даёт командам время завершиться
func setupSignalHandling() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigs

		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			app.Log.Info(fmt.Sprintf(app.T_("Received signal %s. Stopping application…"), sig))
		default:
			app.Log.Error(fmt.Sprintf(app.T_("Unexpected signal %s received. Terminating the application with an error."), sig))
		}

		code := int32(1)
		if s, ok := sig.(syscall.Signal); ok {
			code = 128 + int32(s)
		}
		exitCode.Store(code)
		globalCancel()

		// Команда не успела завершиться сама
		time.Sleep(shutdownTimeout)
		cleanup()
		os.Exit(int(code))
	}()
}

func applyCommandSetting(cliCommand *cli.Command) {
	cliCommand.CommandNotFound = func(ctx context.Context, cmd *cli.Command, name string) {
		appConfig.ConfigManager.SetFormat(cmd.String("format"))
		msg := fmt.Sprintf(app.T_("Unknown command: %s. See 'atrack help'"), name)
		cliError(errors.New(msg))
	}
	cliCommand.HideHelpCommand = true
	cliCommand.EnableShellCompletion = true
	cliCommand.Suggest = true

	for _, sub := range cliCommand.Commands {
		applyCommandSetting(sub)
	}
}

func serveHTTP(ctx context.Context, cmd *cli.Command) error {
	ctx, err := wrapper.ApplyGlobalFlags(ctx, cmd)
	if err != nil {
		return err
	}

	appConfig.ConfigManager.SetFormat(app.FormatHTTP)
	app.Log.EnableStdoutLogging()

	config := http_server.DefaultConfig()
	config.ListenAddr = cmd.String("listen")
	config.APIToken = cmd.String("token")

	actions := screen.NewActions(appConfig)
	return http_server.NewServer(config, appConfig, actions).Start(ctx)
}

func sessionDbus(ctx context.Context, cmd *cli.Command) error {
	ctx, err := wrapper.ApplyGlobalFlags(ctx, cmd)
	if err != nil {
		return err
	}

	if err = appConfig.DBusManager.ConnectSessionBus(); err != nil {
		app.Log.Error("ConnectSessionBus failed: ", err)
		return err
	}

	conn := appConfig.DBusManager.GetConnection()
	actions := screen.NewActions(appConfig)

	// Экспортируем в D-Bus
	if err = screen.RegisterDBus(appConfig, conn, screen.NewDBusWrapper(actions, conn, ctx)); err != nil {
		return err
	}

	sub := screen.EmitBusySignals(actions.Counter(), conn)
	defer sub.Unsubscribe()

	// Блокируем до сигнала
	<-ctx.Done()
	return nil
}

func cliError(err error) {
	if err == nil {
		return
	}

	errCli := reply.CliResponse(ctx, reply.Fail(err.Error()))
	if errCli != nil && !errors.Is(errCli, reply.ErrResponse) {
		log.Fatal(errCli)
	}
}

var cleanupOnce atomic.Bool

func cleanup() {
	if !cleanupOnce.CompareAndSwap(false, true) {
		return
	}
	defer globalCancel()

	if appConfig == nil {
		return
	}

	app.Log.Debug(app.T_("Terminating the application. Releasing resources…"))
	if err := closeApp(appConfig); err != nil {
		app.Log.Error(err)
	}
}

func closeApp(appConfig *app.Config) error {
	reply.StopSpinner(appConfig)

	// Закрываем DBus соединение
	if appConfig.DBusManager != nil {
		if err := appConfig.DBusManager.Close(); err != nil {
			return fmt.Errorf(app.T_("failed to close DBus: %w"), err)
		}
	}

	return nil
}
