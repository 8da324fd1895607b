package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// System routes
	mux.HandleFunc("/health", s.app.SystemHandler.HealthHandler)
	mux.HandleFunc("/version", s.app.SystemHandler.VersionHandler)

	// Test-control routes
	mux.Handle("/__mock/reset", methods{http.MethodPost: s.app.SystemHandler.ResetHandler})
	mux.HandleFunc("/__mock/eventos", s.app.EventsHandler.RecentEventsHandler)

	// WebSocket route
	mux.HandleFunc("/ws/eventos", s.app.EventsHandler.HandleWebSocket)

	// API routes - Users and their vaccination history
	mux.HandleFunc("/usuarios", s.handleUsuarioRoutes)
	mux.HandleFunc("/usuarios/", s.handleUsuarioRoutes)

	// API routes - Vaccine catalogue
	mux.HandleFunc("/vacinas", s.handleVacinaRoutes)
	mux.HandleFunc("/vacinas/", s.handleVacinaRoutes)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		notFound(w)
	})

	return mux
}

// handleUsuarioRoutes dispatches everything under /usuarios/
func (s *Server) handleUsuarioRoutes(w http.ResponseWriter, r *http.Request) {
	h := s.app.UsuarioHandler
	segments := pathSegments(r.URL.Path, "/usuarios")

	if len(segments) == 0 {
		collection(h.ListHandler, h.CreateHandler).ServeHTTP(w, r)
		return
	}

	switch segments[0] {
	case "login":
		if len(segments) == 1 {
			methods{http.MethodPost: h.LoginHandler}.ServeHTTP(w, r)
			return
		}
	case "me":
		if len(segments) == 1 {
			methods{http.MethodGet: h.MeHandler}.ServeHTTP(w, r)
			return
		}
	}

	usuarioID, ok := parseID(w, segments[0], "ID de usuário")
	if !ok {
		return
	}

	if len(segments) == 1 {
		item(
			func(w http.ResponseWriter, r *http.Request) { h.GetHandler(w, r, usuarioID) },
			func(w http.ResponseWriter, r *http.Request) { h.UpdateHandler(w, r, usuarioID) },
			func(w http.ResponseWriter, r *http.Request) { h.DeleteHandler(w, r, usuarioID) },
		).ServeHTTP(w, r)
		return
	}

	if segments[1] != "historico" {
		notFound(w)
		return
	}
	s.handleHistoricoRoutes(w, r, usuarioID, segments[2:])
}

// handleHistoricoRoutes dispatches /usuarios/{id}/historico/...
func (s *Server) handleHistoricoRoutes(w http.ResponseWriter, r *http.Request, usuarioID int, segments []string) {
	h := s.app.HistoricoHandler

	if len(segments) == 0 {
		collection(
			func(w http.ResponseWriter, r *http.Request) { h.ListHandler(w, r, usuarioID) },
			func(w http.ResponseWriter, r *http.Request) { h.CreateHandler(w, r, usuarioID) },
		).ServeHTTP(w, r)
		return
	}

	if segments[0] == "estatisticas" && len(segments) == 1 {
		methods{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) { h.EstatisticasHandler(w, r, usuarioID) },
		}.ServeHTTP(w, r)
		return
	}

	historicoID, ok := parseID(w, segments[0], "ID de histórico")
	if !ok {
		return
	}

	switch {
	case len(segments) == 1:
		item(
			func(w http.ResponseWriter, r *http.Request) { h.GetHandler(w, r, usuarioID, historicoID) },
			func(w http.ResponseWriter, r *http.Request) { h.UpdateHandler(w, r, usuarioID, historicoID) },
			func(w http.ResponseWriter, r *http.Request) { h.DeleteHandler(w, r, usuarioID, historicoID) },
		).ServeHTTP(w, r)
	case len(segments) == 2 && segments[1] == "aplicar":
		methods{
			http.MethodPatch: func(w http.ResponseWriter, r *http.Request) { h.AplicarHandler(w, r, usuarioID, historicoID) },
		}.ServeHTTP(w, r)
	default:
		notFound(w)
	}
}

// handleVacinaRoutes dispatches everything under /vacinas/
func (s *Server) handleVacinaRoutes(w http.ResponseWriter, r *http.Request) {
	h := s.app.VacinaHandler
	segments := pathSegments(r.URL.Path, "/vacinas")

	switch len(segments) {
	case 0:
		collection(h.ListHandler, h.CreateHandler).ServeHTTP(w, r)
	case 1:
		id, ok := parseID(w, segments[0], "ID de vacina")
		if !ok {
			return
		}
		item(
			func(w http.ResponseWriter, r *http.Request) { h.GetHandler(w, r, id) },
			func(w http.ResponseWriter, r *http.Request) { h.UpdateHandler(w, r, id) },
			func(w http.ResponseWriter, r *http.Request) { h.DeleteHandler(w, r, id) },
		).ServeHTTP(w, r)
	default:
		notFound(w)
	}
}
