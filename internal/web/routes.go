package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/rollcall-dev/rollcall/internal/web/handlers"
	"github.com/rollcall-dev/rollcall/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	studentsHandler := handlers.NewStudentsHandler(s.stores.Students, s.encoder, s.gallery)
	subjectsHandler := handlers.NewSubjectsHandler(s.stores.Subjects)
	attendanceHandler := handlers.NewAttendanceHandler(s.stores.Attendance, s.ledger)
	recognizeHandler := handlers.NewRecognizeHandler(s.encoder, s.gallery, s.ledger, s.stores.Settings, s.config.Match.Threshold)
	statsHandler := handlers.NewStatsHandler(s.stats)
	syncHandler := handlers.NewSyncHandler(s.reconciler, s.stores.Attendance)
	settingsHandler := handlers.NewSettingsHandler(s.stores.Settings)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireToken(s.authToken))

		// Students
		r.Get("/students", studentsHandler.List)
		r.Post("/students", studentsHandler.Create)
		r.Get("/students/{id}", studentsHandler.Get)
		r.Put("/students/{id}", studentsHandler.Update)
		r.Delete("/students/{id}", studentsHandler.Delete)
		r.Post("/students/{id}/enroll", studentsHandler.Enroll)

		// Subjects
		r.Get("/subjects", subjectsHandler.List)
		r.Post("/subjects", subjectsHandler.Create)
		r.Get("/subjects/{id}", subjectsHandler.Get)
		r.Put("/subjects/{id}", subjectsHandler.Update)
		r.Delete("/subjects/{id}", subjectsHandler.Delete)

		// Attendance
		r.Get("/attendance", attendanceHandler.List)
		r.Post("/attendance", attendanceHandler.Mark)
		r.Get("/attendance/export", attendanceHandler.Export)

		// Recognition
		r.Post("/recognize", recognizeHandler.Process)

		// Stats
		r.Get("/stats", statsHandler.Get)

		// Sync
		r.Post("/sync", syncHandler.Trigger)
		r.Get("/sync/pending", syncHandler.Pending)

		// Settings
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Set)
	})
}
