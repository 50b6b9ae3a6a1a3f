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

// Package activity отслеживает выполнение произвольного числа конкурентных
// операций и публикует единый сигнал занятости: true, пока выполняется хотя бы
// одна операция, и false, когда все завершились.
//
// Counter хранит число открытых регистраций и политику минимальной видимости
// (minBusyDuration): если счётчик стал занятым, сигнал false не будет отправлен
// раньше, чем истечёт этот интервал. Откладывается только последнее уменьшение,
// промежуточные изменения внутри занятого периода окно не продлевают.
//
// Guard это одноразовая регистрация операции. Track оборачивает операцию в Guard
// и при необходимости задерживает выдачу результата вызывающему
// (minCompletionDelay). Обе задержки независимы: первая управляет общим
// сигналом, вторая определяет момент, когда конкретный вызов узнаёт результат.
//
// Подписчики получают текущее значение до возврата из Subscribe, затем только
// изменения. Уведомления одного подписчика сериализованы: вызов из обработчика
// (подписка, отписка, Increment) не приводит к взаимоблокировке, а значения для
// этого же подписчика доставляются после возврата из текущего обработчика.
// Паника обработчика перехватывается и пишется в лог.
package activity
