package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/video-stream/captionsync/internal/api/handlers"
	"github.com/video-stream/captionsync/internal/api/middleware"
	"github.com/video-stream/captionsync/internal/auth"
	"github.com/video-stream/captionsync/internal/config"
	"github.com/video-stream/captionsync/internal/db"
	"github.com/video-stream/captionsync/internal/job"
	"github.com/video-stream/captionsync/internal/playback"
	"github.com/video-stream/captionsync/internal/subtitle"
)

// Body caps. Caption payloads carry whole VTT/SRT files; everything else is
// a small control message.
const (
	maxCaptionBody = 8 << 20
	maxControlBody = 64 << 10
)

func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, jobQueue *job.JobQueue, svc *subtitle.Service, registry *playback.Registry) *chi.Mux {
	r := chi.NewRouter()
	origins := middleware.Origins(cfg.CORSOrigins)

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSOptions(origins)))

	loginLimiter := middleware.NewRateLimiter("login", 10, time.Minute, middleware.ByClientIP)
	// Players post a sample every tick; this bounds a runaway client.
	sampleLimiter := middleware.NewRateLimiter("sync_sample", cfg.SampleRateLimit, time.Minute, middleware.ByUser)
	editors := middleware.RequireRole(auth.EditorRoles...)

	// Handlers
	healthHandler := handlers.NewHealthHandler(database)
	authHandler := handlers.NewAuthHandler(database, jwtService)
	captionHandler := handlers.NewCaptionHandler(svc.Engine)
	trackHandler := handlers.NewTrackHandler(database, svc, jobQueue, cfg.MediaPath)
	bilingualHandler := handlers.NewBilingualHandler(database, svc, jobQueue)
	syncHandler := handlers.NewSyncHandler(svc, registry, origins)
	jobHandler := handlers.NewJobHandler(jobQueue)
	settingsHandler := handlers.NewSettingsHandler(database, cfg.Engine)
	adminHandler := handlers.NewAdminHandler(database, registry, cfg.DataPath, loginLimiter, sampleLimiter)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		// Auth (public)
		r.With(loginLimiter.Handler, middleware.MaxBodySize(maxControlBody)).Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			// WebSocket upgrade carries no body
			r.Get("/sync/ws", syncHandler.Stream)

			// Caption payloads
			r.Group(func(r chi.Router) {
				r.Use(middleware.MaxBodySize(maxCaptionBody))

				r.Post("/captions/normalize", captionHandler.Normalize)
				r.Post("/captions/similarity", captionHandler.Similarity)
				r.Post("/captions/dedupe", captionHandler.Dedupe)
				r.Post("/captions/align", captionHandler.Align)
				r.Post("/captions/bilingual", captionHandler.Bilingual)
				r.With(editors).Post("/tracks", trackHandler.CreateTrack)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.MaxBodySize(maxControlBody))

				r.Get("/auth/me", authHandler.Me)

				// Stored tracks
				r.Get("/tracks", trackHandler.ListTracks)
				r.Get("/tracks/{id}", trackHandler.GetTrack)
				r.Get("/tracks/{id}/vtt", trackHandler.GetTrackVTT)
				r.With(editors).Post("/tracks/import/*", trackHandler.ImportTrack)
				r.With(editors).Delete("/tracks/{id}", trackHandler.DeleteTrack)

				// Media directory
				r.Get("/media/subtitles", trackHandler.ListMediaSubtitles)
				r.Get("/media/subtitles/*", trackHandler.ListMediaSubtitles)
				r.Get("/media/search", trackHandler.SearchMedia)

				// Bilingual tracks
				r.Get("/bilingual", bilingualHandler.ListBilingual)
				r.Get("/bilingual/{id}", bilingualHandler.GetBilingual)
				r.Get("/bilingual/{id}/vtt", bilingualHandler.GetBilingualVTT)
				r.With(editors).Post("/bilingual", bilingualHandler.CreateBilingual)
				r.With(editors).Delete("/bilingual/{id}", bilingualHandler.DeleteBilingual)

				// Synchronizer sessions
				r.Post("/sync/sessions", syncHandler.CreateSession)
				r.Get("/sync/sessions/{id}", syncHandler.GetSession)
				r.With(sampleLimiter.Handler).Post("/sync/sessions/{id}/sample", syncHandler.Sample)
				r.Post("/sync/sessions/{id}/reset", syncHandler.Reset)
				r.Get("/sync/sessions/{id}/seek", syncHandler.Seek)
				r.Delete("/sync/sessions/{id}", syncHandler.DeleteSession)

				// Jobs
				r.Get("/jobs", jobHandler.ListJobs)
				r.Get("/jobs/{id}", jobHandler.GetJob)
				r.Delete("/jobs/{id}", jobHandler.CancelJob)
				r.Post("/jobs/{id}/retry", jobHandler.RetryJob)

				// Admin
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(auth.RoleAdmin))

					r.Get("/settings", settingsHandler.GetSettings)
					r.Put("/settings", settingsHandler.UpdateSettings)

					r.Get("/admin/users", adminHandler.ListUsers)
					r.Post("/admin/users", adminHandler.CreateUser)
					r.Put("/admin/users/{id}", adminHandler.UpdateUser)
					r.Delete("/admin/users/{id}", adminHandler.DeleteUser)
					r.Get("/admin/sync/sessions", adminHandler.ListSessions)
					r.Get("/admin/ratelimit", adminHandler.RateLimitStatus)
					r.Delete("/admin/ratelimit", adminHandler.ClearRateLimit)
					r.Get("/admin/stats", adminHandler.DashboardStats)
				})
			})
		})
	})

	return r
}
