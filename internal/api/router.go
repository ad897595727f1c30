package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.actorMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	// Service endpoints
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	if s.cfg.DocsURL != "" {
		r.Get(s.cfg.DocsURL, s.handleRouteIndex)
	}
	if s.cfg.RedocURL != "" && s.cfg.RedocURL != s.cfg.DocsURL {
		r.Get(s.cfg.RedocURL, s.handleRouteIndex)
	}

	// Substation hierarchy and documents
	r.Route("/objects", func(r chi.Router) {
		r.Route("/substations", func(r chi.Router) {
			r.Get("/", s.handleListSubstations)
			r.Post("/", s.handleCreateSubstation)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSubstation)
				r.Put("/", s.handleUpdateSubstation)
				r.Patch("/", s.handleUpdateSubstation)
				r.Delete("/", s.handleDeleteSubstation)
			})
		})

		r.Route("/switchgears", func(r chi.Router) {
			r.Get("/", s.handleListSwitchgears)
			r.Post("/", s.handleCreateSwitchgear)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSwitchgear)
				r.Put("/", s.handleUpdateSwitchgear)
				r.Patch("/", s.handleUpdateSwitchgear)
				r.Delete("/", s.handleDeleteSwitchgear)
			})
		})

		r.Route("/bays", func(r chi.Router) {
			r.Get("/", s.handleListBays)
			r.Post("/", s.handleCreateBay)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBay)
				r.Put("/", s.handleUpdateBay)
				r.Patch("/", s.handleUpdateBay)
				r.Delete("/", s.handleDeleteBay)
			})
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Put("/", s.handleUpdateDocument)
				r.Patch("/", s.handleUpdateDocument)
				r.Delete("/", s.handleDeleteDocument)
			})
		})
	})

	// Panels and their devices
	r.Route("/panels", func(r chi.Router) {
		r.Get("/", s.handleListPanels)
		r.Post("/", s.handleCreatePanel)

		r.Route("/devices/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.Put("/", s.handleUpdateDevice)
			r.Patch("/", s.handleUpdateDevice)
			r.Delete("/", s.handleDeleteDevice)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPanel)
			r.Put("/", s.handleUpdatePanel)
			r.Patch("/", s.handleUpdatePanel)
			r.Delete("/", s.handleDeletePanel)
			r.Get("/devices", s.handleListDevices)
			r.Post("/devices", s.handleCreateDevice)
		})
	})

	// Device configurations and setting revisions
	r.Route("/configs", func(r chi.Router) {
		r.Get("/", s.handleListConfigs)
		r.Post("/", s.handleCreateConfig)

		r.Route("/revisions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetRevision)
			r.Put("/", s.handleUpdateRevision)
			r.Patch("/", s.handleUpdateRevision)
			r.Post("/activate", s.handleActivateRevision)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetConfig)
			r.Put("/", s.handleUpdateConfig)
			r.Patch("/", s.handleUpdateConfig)
			r.Get("/revisions", s.handleListRevisions)
			r.Post("/revisions", s.handleCreateRevision)
		})
	})

	// Reports
	r.Route("/reports", func(r chi.Router) {
		r.Get("/summary", s.handleSummaryReport)
		r.Get("/topology", s.handleTopologyReport)
		r.Get("/settings-history", s.handleSettingsHistoryReport)
		r.Get("/devices/{id}/history", s.handleDeviceHistoryReport)
		r.Get("/substations/{id}/structure", s.handleStructureReport)
	})

	r.Get("/audit", s.handleListAuditLogs)

	// WebSocket change-event stream
	r.Get(s.wsPath(), s.handleWebSocket)

	s.routes = r
	return r
}

// wsPath returns the configured WebSocket path.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
