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

	"github.com/godbus/dbus/v5"
)

// DBusServiceName имя сервиса на шине
const DBusServiceName = "org.atrack.Tracker"

type DBusManager interface {
	GetConnection() *dbus.Conn
	ConnectSessionBus() error
	Close() error
	IsConnected() bool
}

type dbusManagerImpl struct {
	conn      *dbus.Conn
	connected bool
}

func NewDBusManager() DBusManager {
	return &dbusManagerImpl{}
}

func (dm *dbusManagerImpl) GetConnection() *dbus.Conn {
	return dm.conn
}

// ConnectSessionBus подключается к сессионной шине и занимает имя DBusServiceName
func (dm *dbusManagerImpl) ConnectSessionBus() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf(T_("failed to connect to DBus: %w"), err)
	}

	reply, err := conn.RequestName(DBusServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf(T_("failed to request DBus name: %w"), err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return fmt.Errorf(T_("Interface %s is already in use"), DBusServiceName)
	}

	dm.conn = conn
	dm.connected = true
	Log.Debug("DBus connection established")

	return nil
}

func (dm *dbusManagerImpl) Close() error {
	if dm.conn == nil {
		return nil
	}

	err := dm.conn.Close()
	dm.conn = nil
	dm.connected = false
	if err != nil {
		return fmt.Errorf(T_("failed to close DBus connection: %w"), err)
	}
	Log.Debug("DBus connection closed")
	return nil
}

func (dm *dbusManagerImpl) IsConnected() bool {
	return dm.connected && dm.conn != nil
}
