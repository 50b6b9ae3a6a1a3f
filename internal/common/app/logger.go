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

package app

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type loggerImpl struct {
	*logrus.Logger
	stdoutHook *StdoutHook
}

// NewLogger создает logrus-логгер. Вывод по умолчанию подавлен, Fatal и Panic всегда печатаются в stdout.
func NewLogger(devMode bool) LoggerImpl {
	log := logrus.New()

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   false,
		DisableQuote:  true,
	})

	log.SetOutput(io.Discard)

	stdoutHook := &StdoutHook{enableAll: false, out: os.Stdout}
	log.AddHook(stdoutHook)

	if devMode {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return &loggerImpl{
		Logger:     log,
		stdoutHook: stdoutHook,
	}
}

func (l *loggerImpl) Warning(args ...interface{}) {
	l.Warn(args...)
}

func (l *loggerImpl) Debugf(format string, args ...interface{}) {
	l.Logger.Debugf(format, args...)
}

func (l *loggerImpl) Errorf(format string, args ...interface{}) {
	l.Logger.Errorf(format, args...)
}

// EnableStdoutLogging включает вывод всех уровней в stdout, используется в режиме serve
func (l *loggerImpl) EnableStdoutLogging() {
	l.stdoutHook.enableAll = true
}

type StdoutHook struct {
	enableAll bool
	out       io.Writer
}

func (hook *StdoutHook) Fire(entry *logrus.Entry) error {
	// Если не включен режим всех уровней, проверяем только Fatal/Panic
	if !hook.enableAll && entry.Level != logrus.FatalLevel && entry.Level != logrus.PanicLevel {
		return nil
	}

	line, err := entry.String()
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(hook.out, line)
	return err
}

func (hook *StdoutHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
