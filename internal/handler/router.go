package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/document-requests-api/internal/metrics"
	"github.com/document-requests-api/internal/middleware"
)

// Handlers - набор хендлеров для роутера
type Handlers struct {
	Requests      *RequestHandler
	Assignments   *AssignmentHandler
	Documents     *DocumentHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
}

// RouterConfig - параметры цепочки middleware
type RouterConfig struct {
	JWTSecret  []byte
	TrustProxy bool
}

// Router настраивает маршруты API
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	handlers Handlers
	cfg      RouterConfig
}

// NewRouter создаёт новый роутер
func NewRouter(handlers Handlers, cfg RouterConfig, logger *slog.Logger) *Router {
	return &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		handlers: handlers,
		cfg:      cfg,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	r.mux.HandleFunc("/requests", r.requestsRouter)
	r.mux.HandleFunc("/requests/", r.requestsRouter)
	r.mux.HandleFunc("/reminders", r.remindersRouter)
	r.mux.HandleFunc("/assignments/", r.assignmentsRouter)
	r.mux.HandleFunc("/documents/", r.documentsRouter)
	r.mux.HandleFunc("/notifications", r.notificationsRouter)
	r.mux.HandleFunc("/notifications/", r.notificationsRouter)
	r.mux.HandleFunc("/admin/", r.adminRouter)
	r.mux.Handle("/metrics", metrics.Handler())

	// Health check
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Применяем middleware, последний в списке выполняется первым
	handler := middleware.ContentType(r.mux)
	handler = middleware.Authenticate(r.cfg.JWTSecret, r.logger, "/health", "/metrics")(handler)
	handler = middleware.ClientIP(r.cfg.TrustProxy)(handler)
	handler = metrics.Instrument(handler)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

func pathParts(path, prefix string) []string {
	path = strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
}

func notFound(w http.ResponseWriter) {
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// requestsRouter: POST /requests, GET /requests/{id}, POST /requests/{id}/cancel
func (r *Router) requestsRouter(w http.ResponseWriter, req *http.Request) {
	parts := pathParts(req.URL.Path, "/requests")

	switch {
	case len(parts) == 0:
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		r.handlers.Requests.Create(w, req)
	case len(parts) == 1:
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		r.handlers.Requests.GetByID(w, req)
	case len(parts) == 2 && parts[1] == "cancel":
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		r.handlers.Requests.Cancel(w, req)
	default:
		notFound(w)
	}
}

func (r *Router) remindersRouter(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.handlers.Requests.SendReminders(w, req)
}

// assignmentsRouter: /assignments/{id}/documents (GET, POST), /assignments/{id}/review (POST)
func (r *Router) assignmentsRouter(w http.ResponseWriter, req *http.Request) {
	parts := pathParts(req.URL.Path, "/assignments")
	if len(parts) != 2 {
		notFound(w)
		return
	}

	switch parts[1] {
	case "documents":
		switch req.Method {
		case http.MethodGet:
			r.handlers.Assignments.ListDocuments(w, req)
		case http.MethodPost:
			r.handlers.Assignments.Upload(w, req)
		default:
			methodNotAllowed(w)
		}
	case "review":
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		r.handlers.Assignments.Review(w, req)
	default:
		notFound(w)
	}
}

func (r *Router) documentsRouter(w http.ResponseWriter, req *http.Request) {
	if len(pathParts(req.URL.Path, "/documents")) != 1 {
		notFound(w)
		return
	}

	switch req.Method {
	case http.MethodGet:
		r.handlers.Documents.Download(w, req)
	case http.MethodDelete:
		r.handlers.Documents.Delete(w, req)
	default:
		methodNotAllowed(w)
	}
}

// notificationsRouter: GET /notifications, POST /notifications/read-all, POST /notifications/{id}/read
func (r *Router) notificationsRouter(w http.ResponseWriter, req *http.Request) {
	parts := pathParts(req.URL.Path, "/notifications")

	switch {
	case len(parts) == 0:
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		r.handlers.Notifications.List(w, req)
	case len(parts) == 1 && parts[0] == "read-all":
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		r.handlers.Notifications.MarkAllRead(w, req)
	case len(parts) == 2 && parts[1] == "read":
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		r.handlers.Notifications.MarkRead(w, req)
	default:
		notFound(w)
	}
}

func (r *Router) adminRouter(w http.ResponseWriter, req *http.Request) {
	switch strings.Trim(strings.TrimPrefix(req.URL.Path, "/admin"), "/") {
	case "scheduler/run":
		if req.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		r.handlers.Admin.RunScheduler(w, req)
	case "audit-logs":
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		r.handlers.Admin.AuditLogs(w, req)
	default:
		notFound(w)
	}
}
