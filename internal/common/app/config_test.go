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
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigPaths(t *testing.T, paths ...string) {
	t.Helper()
	saved := configPaths
	configPaths = paths
	t.Cleanup(func() { configPaths = saved })
}

// TestConfigManager_Defaults тестирует значения по умолчанию без файла конфигурации
func TestConfigManager_Defaults(t *testing.T) {
	withConfigPaths(t, filepath.Join(t.TempDir(), "missing.yml"))

	cm, err := NewConfigManager(BuildInfo{})
	require.NoError(t, err)

	cfg := cm.GetConfig()
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, time.Second, cfg.MinBusyDuration)
	assert.Equal(t, time.Second, cfg.MinCompletionDelay)
	assert.Equal(t, "127.0.0.1:8089", cfg.Listen)
	assert.Equal(t, FormatText, cfg.Format)
	assert.False(t, cm.IsDevMode())
	assert.NotEmpty(t, cm.GetColors().Accent)
}

// TestConfigManager_File тестирует чтение YAML файла
func TestConfigManager_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
environment: dev
minBusyDuration: 250ms
minCompletionDelay: 2s
listen: 127.0.0.1:9000
colors:
  accent: "#ffffff"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	withConfigPaths(t, path)

	cm, err := NewConfigManager(BuildInfo{})
	require.NoError(t, err)

	cfg := cm.GetConfig()
	assert.Equal(t, 250*time.Millisecond, cfg.MinBusyDuration)
	assert.Equal(t, 2*time.Second, cfg.MinCompletionDelay)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, "#ffffff", cm.GetColors().Accent)
	assert.Equal(t, "9", cm.GetColors().Error)
	assert.True(t, cm.IsDevMode())
}

// TestConfigManager_Env тестирует переопределение через переменные окружения
func TestConfigManager_Env(t *testing.T) {
	withConfigPaths(t, filepath.Join(t.TempDir(), "missing.yml"))
	t.Setenv("ATRACK_MIN_BUSY", "3s")
	t.Setenv("ATRACK_LISTEN", "0.0.0.0:1")

	cm, err := NewConfigManager(BuildInfo{})
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cm.GetConfig().MinBusyDuration)
	assert.Equal(t, "0.0.0.0:1", cm.GetConfig().Listen)
}

// TestConfigManager_NegativeDelay тестирует отказ от отрицательных задержек
func TestConfigManager_NegativeDelay(t *testing.T) {
	withConfigPaths(t, filepath.Join(t.TempDir(), "missing.yml"))
	t.Setenv("ATRACK_MIN_DELAY", "-1s")

	_, err := NewConfigManager(BuildInfo{})
	assert.Error(t, err)
}

// TestConfigManager_BuildInfo тестирует приоритет параметров сборки
func TestConfigManager_BuildInfo(t *testing.T) {
	withConfigPaths(t, filepath.Join(t.TempDir(), "missing.yml"))

	cm, err := NewConfigManager(BuildInfo{
		CommandPrefix: "toolbox run",
		Environment:   "dev",
		Version:       "1.2.3",
	})
	require.NoError(t, err)

	cfg := cm.GetConfig()
	assert.Equal(t, "toolbox run", cfg.CommandPrefix)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.True(t, cm.IsDevMode())
}

// TestConfigManager_Setters тестирует переопределения из флагов
func TestConfigManager_Setters(t *testing.T) {
	withConfigPaths(t, filepath.Join(t.TempDir(), "missing.yml"))

	cm, err := NewConfigManager(BuildInfo{})
	require.NoError(t, err)

	cm.SetFormat(FormatJSON)
	cm.SetMinBusyDuration(0)
	cm.SetMinCompletionDelay(-time.Second)

	cfg := cm.GetConfig()
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Zero(t, cfg.MinBusyDuration)
	assert.Equal(t, time.Second, cfg.MinCompletionDelay)
}

// TestGetSystemLocale тестирует разбор переменных локали
func TestGetSystemLocale(t *testing.T) {
	t.Setenv("LC_ALL", "ru_RU.UTF-8")
	assert.Equal(t, "ru", GetSystemLocale().String())

	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "garbage!!")
	assert.Equal(t, "en", GetSystemLocale().String())
}

// TestWithTransaction тестирует сохранение переданной транзакции и создание новой
func TestWithTransaction(t *testing.T) {
	ctx := WithTransaction(context.Background(), "tx-5")
	assert.Equal(t, "tx-5", GetTransaction(ctx))

	first := GetTransaction(WithTransaction(context.Background(), ""))
	second := GetTransaction(WithTransaction(context.Background(), ""))
	_, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.Empty(t, GetTransaction(context.Background()))
}
