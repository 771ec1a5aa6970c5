package server

import "net/http"

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// OAuth flow
	mux.HandleFunc("/auth/google/url", s.handleAuthURL)
	mux.HandleFunc("/auth/google/callback", s.handleAuthCallback)
	mux.HandleFunc("/auth/google/refresh", s.handleAuthRefresh)

	// Chat proxy
	mux.HandleFunc("/chat/prompt", s.handleChatPrompt)
}
