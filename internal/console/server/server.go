package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/agentiq-console/internal/console/handler"
	"github.com/xela07ax/agentiq-console/internal/infra/auth"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Проверка токенов сессий (HS256)
	validator auth.TokenValidator

	sessionHandler   *handler.SessionHandler   // /v1/sessions, /v1/actions, /v1/feedback
	dashboardHandler *handler.DashboardHandler // /v1/dashboard, /v1/export.*, /v1/tickets
}

// NewConsoleServer инициализирует сервер консоли со всеми зависимостями
func NewConsoleServer(
	logger *zap.Logger,
	validator auth.TokenValidator,
	sessionH *handler.SessionHandler,
	dashboardH *handler.DashboardHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:           chi.NewRouter(),
		logger:           logger.Named("console-api"),
		validator:        validator,
		sessionHandler:   sessionH,
		dashboardHandler: dashboardH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Новая сессия выдает токен, поэтому сама без токена
		r.Post("/v1/sessions", s.sessionHandler.Start)
		r.Get("/v1/catalog", s.sessionHandler.AvailableActions)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (токен сессии) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.validator, s.logger))

		r.Route("/v1/actions", func(r chi.Router) {
			r.Get("/", s.sessionHandler.List)
			r.Post("/", s.sessionHandler.Perform)
			r.Post("/{index}/executed", s.sessionHandler.MarkExecuted)
		})

		r.Route("/v1/feedback", func(r chi.Router) {
			r.Get("/", s.sessionHandler.ListFeedback)
			r.Post("/", s.sessionHandler.AddFeedback)
		})

		// Дашборд: показ исполняет ожидающие предложения
		r.Get("/v1/dashboard", s.dashboardHandler.GetReport)
		r.Get("/v1/export.csv", s.dashboardHandler.ExportCSV)
		r.Get("/v1/export.pdf", s.dashboardHandler.ExportPDF)
		r.Post("/v1/tickets/aggregate", s.dashboardHandler.OpenAggregateTicket)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
