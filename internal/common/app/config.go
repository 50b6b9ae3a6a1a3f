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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Manager управляет конфигурацией приложения
type Manager interface {
	GetConfig() *Configuration
	GetColors() Colors
	IsDevMode() bool
	SetFormat(format string)
	SetMinBusyDuration(d time.Duration)
	SetMinCompletionDelay(d time.Duration)
}

// BuildInfo информация интегрированная через сборку
type BuildInfo struct {
	CommandPrefix string
	Environment   string
	PathLocales   string
	Version       string
}

// Colors конфигурация цветовой схемы
type Colors struct {
	Accent  string `yaml:"accent" env:"ATRACK_COLOR_ACCENT" env-default:"#a2734c"`
	Success string `yaml:"success" env:"ATRACK_COLOR_SUCCESS" env-default:"2"`
	Error   string `yaml:"error" env:"ATRACK_COLOR_ERROR" env-default:"9"`
	Spinner string `yaml:"spinner" env:"ATRACK_COLOR_SPINNER" env-default:"#26a269"`
}

// Константы форматов вывода
const (
	FormatText = "text" // CLI текстовый вывод
	FormatJSON = "json" // CLI JSON вывод
	FormatYAML = "yaml" // CLI YAML вывод
	FormatDBus = "dbus" // D-Bus сервис
	FormatHTTP = "http" // HTTP сервер с WebSocket
)

// Configuration основная конфигурация приложения
type Configuration struct {
	CommandPrefix      string        `yaml:"commandPrefix" env:"ATRACK_COMMAND_PREFIX"`
	Environment        string        `yaml:"environment" env:"ATRACK_ENVIRONMENT" env-default:"prod"`
	PathLocales        string        `yaml:"pathLocales" env:"ATRACK_PATH_LOCALES" env-default:"/usr/share/locale"`
	MinBusyDuration    time.Duration `yaml:"minBusyDuration" env:"ATRACK_MIN_BUSY" env-default:"1s"`
	MinCompletionDelay time.Duration `yaml:"minCompletionDelay" env:"ATRACK_MIN_DELAY" env-default:"1s"`
	Listen             string        `yaml:"listen" env:"ATRACK_LISTEN" env-default:"127.0.0.1:8089"`
	APIToken           string        `yaml:"apiToken" env:"ATRACK_API_TOKEN"`
	Colors             Colors        `yaml:"colors"`

	Version string `yaml:"-"`

	// Runtime flags
	Format  string `yaml:"-"`
	DevMode bool   `yaml:"-"`
}

// configPaths места поиска конфигурационного файла по порядку
var configPaths = []string{"config.yml", "/etc/atrack/config.yml"}

// configManagerImpl реализация Manager
type configManagerImpl struct {
	config *Configuration
}

// NewConfigManager создает новый менеджер конфигурации
func NewConfigManager(buildInfo BuildInfo) (Manager, error) {
	cm := &configManagerImpl{
		config: &Configuration{},
	}

	if err := cm.loadConfiguration(buildInfo); err != nil {
		return nil, err
	}

	return cm, nil
}

// loadConfiguration загружает конфигурацию из файлов, окружения и build-time переменных
func (cm *configManagerImpl) loadConfiguration(buildInfo BuildInfo) error {
	if err := cm.loadConfigFile(); err != nil {
		return err
	}

	cm.applyBuildInfo(buildInfo)

	if cm.config.MinBusyDuration < 0 || cm.config.MinCompletionDelay < 0 {
		return errors.New(T_("Delays must not be negative"))
	}

	// Определяем режим разработки
	cm.config.DevMode = cm.config.Environment != "prod"
	cm.config.Format = FormatText

	return nil
}

// applyBuildInfo применяет параметры времени сборки
func (cm *configManagerImpl) applyBuildInfo(buildInfo BuildInfo) {
	if buildInfo.CommandPrefix != "" {
		cm.config.CommandPrefix = buildInfo.CommandPrefix
	}
	if buildInfo.Environment != "" {
		cm.config.Environment = buildInfo.Environment
	}
	if buildInfo.PathLocales != "" {
		cm.config.PathLocales = buildInfo.PathLocales
	}
	if buildInfo.Version != "" {
		cm.config.Version = buildInfo.Version
	}
}

// loadConfigFile загружает конфигурацию из YAML файла, если он найден, иначе только из окружения
func (cm *configManagerImpl) loadConfigFile() error {
	var configPath string
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			configPath = path
			break
		}
	}

	if configPath == "" {
		if err := cleanenv.ReadEnv(cm.config); err != nil {
			return fmt.Errorf(T_("failed to read environment: %w"), err)
		}
		return nil
	}

	if err := cleanenv.ReadConfig(configPath, cm.config); err != nil {
		Log.Warning("Failed to read config file: ", err)
		// файл битый, продолжаем со значениями по умолчанию
		if err = cleanenv.ReadEnv(cm.config); err != nil {
			return fmt.Errorf(T_("failed to read environment: %w"), err)
		}
	}

	return nil
}

// GetConfig возвращает конфигурацию
func (cm *configManagerImpl) GetConfig() *Configuration {
	return cm.config
}

// GetColors возвращает цветовую схему
func (cm *configManagerImpl) GetColors() Colors {
	return cm.config.Colors
}

// IsDevMode возвращает флаг режима разработки
func (cm *configManagerImpl) IsDevMode() bool {
	return cm.config.DevMode
}

// SetFormat устанавливает формат вывода
func (cm *configManagerImpl) SetFormat(format string) {
	cm.config.Format = format
}

// SetMinBusyDuration переопределяет минимальную длительность индикатора
func (cm *configManagerImpl) SetMinBusyDuration(d time.Duration) {
	if d >= 0 {
		cm.config.MinBusyDuration = d
	}
}

// SetMinCompletionDelay переопределяет минимальную задержку результата операции
func (cm *configManagerImpl) SetMinCompletionDelay(d time.Duration) {
	if d >= 0 {
		cm.config.MinCompletionDelay = d
	}
}
