package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterOptions carries the cross-cutting HTTP settings.
type RouterOptions struct {
	AllowedOrigins []string
	// UploadRateLimit is the number of uploads allowed per client IP each minute. Zero disables the limit.
	UploadRateLimit int
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	readerHandler *ReaderHandler,
	speechHandler *SpeechHandler,
	newspaperHandler *NewspaperHandler,
	authHandler *AuthHandler,
	authMiddleware func(http.Handler) http.Handler,
	opts RouterOptions,
) http.Handler {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"newspaper-reader"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api.HandleFunc("/auth/validate", authHandler.ValidateToken).Methods(http.MethodGet)

	// Reader session
	api.HandleFunc("/reader", readerHandler.GetState).Methods(http.MethodGet)
	var upload http.Handler = http.HandlerFunc(readerHandler.SelectFile)
	if opts.UploadRateLimit > 0 {
		upload = httprate.LimitByIP(opts.UploadRateLimit, time.Minute)(upload)
	}
	api.Handle("/reader/file", upload).Methods(http.MethodPost)
	api.HandleFunc("/reader/play-pause", readerHandler.PlayPause).Methods(http.MethodPost)
	api.HandleFunc("/reader/skip-back", readerHandler.SkipBack).Methods(http.MethodPost)
	api.HandleFunc("/reader/skip-forward", readerHandler.SkipForward).Methods(http.MethodPost)
	api.HandleFunc("/reader/stop", readerHandler.Stop).Methods(http.MethodPost)
	api.HandleFunc("/reader/settings", readerHandler.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/reader/notices", readerHandler.GetNotices).Methods(http.MethodGet)
	api.HandleFunc("/reader/events", readerHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/reader/audio", readerHandler.GetAudio).Methods(http.MethodGet)

	api.HandleFunc("/speech", speechHandler.Synthesize).Methods(http.MethodPost)

	api.HandleFunc("/newspapers", newspaperHandler.GetNewspapers).Methods(http.MethodGet)
	api.HandleFunc("/newspapers/{id}", newspaperHandler.GetNewspaper).Methods(http.MethodGet)

	// Without ALLOWED_ORIGINS only a browser client on the local machine may call the API.
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:5173",
			"http://localhost:4173",
			"http://localhost:3000",
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"Link",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
