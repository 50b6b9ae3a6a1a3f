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
	"os"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// TextDomain имя домена gettext с переводами программы
const TextDomain = "atrack"

type translatorImpl struct {
	localesPath string
	once        sync.Once
}

// NewTranslator создает переводчик. Каталоги загружаются при первом обращении.
func NewTranslator(localesPath string) Translator {
	return &translatorImpl{
		localesPath: localesPath,
	}
}

func (t *translatorImpl) initLocales() {
	t.once.Do(func() {
		if _, err := os.Stat(t.localesPath); os.IsNotExist(err) {
			Log.Debug("Translations folder not found at path: " + t.localesPath)
		}

		gotext.Configure(t.localesPath, GetSystemLocale().String(), TextDomain)
	})
}

func (t *translatorImpl) T_(messageID string) string {
	t.initLocales()
	return gotext.Get(messageID)
}

func (t *translatorImpl) TN_(messageID string, pluralMessageID string, count int) string {
	t.initLocales()
	return gotext.GetN(messageID, pluralMessageID, count)
}

// GetSystemLocale определяет язык по LC_ALL, LC_MESSAGES и LANG
func GetSystemLocale() language.Tag {
	var localeStr string
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			localeStr = stripAfterDot(v)
			break
		}
	}

	// BCP 47 использует "-" вместо "_"
	localeStr = strings.Replace(localeStr, "_", "-", 1)
	tag, err := language.Parse(localeStr)
	if err != nil {
		return language.English
	}

	base, _ := tag.Base()
	return language.Make(base.String())
}

func stripAfterDot(localeStr string) string {
	if idx := strings.Index(localeStr, "."); idx != -1 {
		return localeStr[:idx]
	}
	return localeStr
}
