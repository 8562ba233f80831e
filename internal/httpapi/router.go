package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux; the route surface is
// small enough that a third-party router buys nothing.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler supports the http.Handler interface (static file serving).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAuthRoutes registra las rutas de autenticación del panel.
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, req)
	})
	r.Handle("/api/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Logout(w, req)
	})
	r.Handle("/api/auth/check", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Check(w, req)
	})
}

// RegisterSolicitudesRoutes registra las rutas de solicitudes.
func (r *Router) RegisterSolicitudesRoutes(h *SolicitudesHandler) {
	r.Handle("/api/solicitudes", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			h.Create(w, req)
		case http.MethodGet:
			h.requireSession(h.List)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/solicitudes/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.requireSession(h.Export)(w, req)
	})
	r.Handle("/api/solicitudes/", func(w http.ResponseWriter, req *http.Request) {
		// Only PATCH /api/solicitudes/{id} exists under this prefix;
		// anything else is an unknown route.
		if req.Method != http.MethodPatch {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.requireSession(h.Update)(w, req)
	})
}

// RegisterHealthRoutes registra la verificación de conexión a la BD.
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/api/health/db", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.DB(w, req)
	})
}

// RegisterUploadsRoutes sirve los PDF almacenados bajo /uploads/cedulas/.
func (r *Router) RegisterUploadsRoutes(dir string) {
	r.HandleHandler("/uploads/cedulas/",
		http.StripPrefix("/uploads/cedulas/", http.FileServer(http.Dir(dir))))
}
