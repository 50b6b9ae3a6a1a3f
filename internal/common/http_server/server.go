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

package http_server

import (
	"atrack/internal/activity"
	"atrack/internal/common/app"
	"atrack/internal/common/metrics"
	"atrack/internal/common/reply"
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// transactionHeader заголовок с идентификатором транзакции запроса и ответа
const transactionHeader = "X-Transaction-ID"

// ScreenActions действия, которые сервер публикует по HTTP
type ScreenActions interface {
	Increment(ctx context.Context) (*reply.APIResponse, error)
	ChangeColor(ctx context.Context) (*reply.APIResponse, error)
	State(ctx context.Context) (*reply.APIResponse, error)
	Counter() *activity.Counter
	Collector() *metrics.Collector
}

// Config конфигурация HTTP сервера
type Config struct {
	ListenAddr   string
	APIToken     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "127.0.0.1:8089",
		ReadTimeout:  time.Minute,
		WriteTimeout: 5 * time.Minute,
	}
}

// Server HTTP сервер с API экрана, потоком событий и метриками
type Server struct {
	config    Config
	appConfig *app.Config
	actions   ScreenActions
	hub       *WebSocketHub
	mux       *http.ServeMux
	server    *http.Server
	listener  net.Listener
}

// NewServer создаёт новый HTTP сервер и регистрирует маршруты
func NewServer(config Config, appConfig *app.Config, actions ScreenActions) *Server {
	s := &Server{
		config:    config,
		appConfig: appConfig,
		actions:   actions,
		hub:       NewWebSocketHub(),
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/state", s.handleAction(actions.State))
	s.mux.HandleFunc("POST /api/increment", s.handleAction(actions.Increment))
	s.mux.HandleFunc("POST /api/color", s.handleAction(actions.ChangeColor))
	s.mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
	s.mux.Handle("GET /metrics", actions.Collector().Handler())

	return s
}

// Hub WebSocket hub сервера
func (s *Server) Hub() *WebSocketHub {
	return s.hub
}

// Handler маршрутизатор со всеми middleware
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.loggingMiddleware(s.authMiddleware(s.mux)))
}

// Attach подключает hub к сигналу занятости и событиям задач. Возвращает функцию отключения.
func (s *Server) Attach(ctx context.Context) (detach func()) {
	hubCtx, cancel := context.WithCancel(ctx)
	go s.hub.Run(hubCtx)

	sub := s.actions.Counter().Subscribe(s.hub.BroadcastBusy)
	removeSink := reply.AddEventSink(func(ed *reply.EventData) {
		s.hub.BroadcastEvent(ed)
	})

	return func() {
		removeSink()
		sub.Unsubscribe()
		cancel()
	}
}

func (s *Server) requestContext(r *http.Request) context.Context {
	ctx := context.WithValue(r.Context(), app.AppConfigKey, s.appConfig)
	return app.WithTransaction(ctx, r.Header.Get(transactionHeader))
}

// handleAction выполняет действие и отдаёт APIResponse в JSON
func (s *Server) handleAction(action func(context.Context) (*reply.APIResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := s.requestContext(r)
		w.Header().Set(transactionHeader, app.GetTransaction(ctx))

		resp, err := action(ctx)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, reply.APIResponse{
				Data:        map[string]interface{}{"message": err.Error()},
				Error:       true,
				Transaction: app.GetTransaction(ctx),
			})
			return
		}

		resp.Transaction = app.GetTransaction(ctx)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": s.appConfig.ConfigManager.GetConfig().Version,
		"busy":    s.actions.Counter().Busy(),
	})
}

// authMiddleware проверяет токен, если он настроен
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.APIToken == "" || r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized(w, app.T_("Authorization header is required"))
			return
		}

		// Поддерживаем формат "Bearer <token>" и просто "<token>"
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != s.config.APIToken {
			writeUnauthorized(w, app.T_("Invalid API token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware логирует запросы
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		app.Log.Info(fmt.Sprintf("HTTP %s %s %d %.3fms", r.Method, r.URL.Path, wrapped.statusCode, float64(elapsed.Microseconds())/1000.0))
	})
}

// corsMiddleware добавляет CORS заголовки
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Expose-Headers", transactionHeader)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+transactionHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter обёртка для захвата статус-кода
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack реализует интерфейс http.Hijacker для поддержки WebSocket
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("responseWriter does not implement http.Hijacker")
	}
	return h.Hijack()
}

// Start запускает HTTP сервер и блокирует до отмены ctx
func (s *Server) Start(ctx context.Context) error {
	detach := s.Attach(ctx)
	defer detach()

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	var err error
	s.listener, err = net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf(app.T_("failed to listen on %s: %w"), s.config.ListenAddr, err)
	}

	app.Log.Info("HTTP server listening on http://" + s.config.ListenAddr)

	serveErr := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if err != nil {
			return fmt.Errorf(app.T_("HTTP server error: %w"), err)
		}
	}

	return s.Shutdown()
}

// Shutdown останавливает HTTP сервер
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	app.Log.Info("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf(app.T_("failed to shutdown server: %w"), err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeUnauthorized отправляет ошибку авторизации
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, reply.APIResponse{
		Data:  map[string]interface{}{"message": message},
		Error: true,
	})
}
