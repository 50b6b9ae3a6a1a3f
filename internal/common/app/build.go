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

// Значения переопределяются при сборке через -ldflags "-X atrack/internal/common/app.BuildVersion=..."
var (
	BuildCommandPrefix string
	BuildEnvironment   string
	BuildPathLocales   string
	BuildVersion       string
)

// GetBuildInfo собирает параметры времени сборки
func GetBuildInfo() BuildInfo {
	version := BuildVersion
	if version == "" {
		version = "dev"
	}

	return BuildInfo{
		CommandPrefix: BuildCommandPrefix,
		Environment:   BuildEnvironment,
		PathLocales:   BuildPathLocales,
		Version:       version,
	}
}
