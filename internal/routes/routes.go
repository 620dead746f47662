package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnshRaj112/classroom-journal/internal/handlers"
	"github.com/AnshRaj112/classroom-journal/internal/middleware"
)

func SetupRoutes(r chi.Router, journal *handlers.JournalHandler, jwtSecret string) {
	// Unauthenticated
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Journal routes
	r.Route("/journal", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Post("/", journal.CreateJournal)
		r.Get("/feed/teacher", journal.TeacherFeed)
		r.Get("/feed/student", journal.StudentFeed)
		r.Put("/{id}", journal.UpdateJournal)
		r.Delete("/{id}", journal.DeleteJournal)
		r.Put("/{id}/publish", journal.PublishJournal)
	})
}
