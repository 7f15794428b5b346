package handler

import (
	"net/http"

	"secure-library/internal/config"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"secure-library"}`))
	}).Methods("GET")

	// Initialize handlers
	libraryHandler := NewLibraryHandler(container.GetLibraryService(), container.GetLogger())
	contentHandler := NewContentHandler(container.GetConfig().GetLibraryPath(), container.GetLogger())

	// Content routes (consumed by the viewer pipeline, not the API)
	router.HandleFunc("/catalog.json", contentHandler.GetManifest).Methods("GET")
	router.HandleFunc("/encrypted/{filename}", contentHandler.GetEncryptedBook).Methods("GET")

	// Public catalog routes
	api.HandleFunc("/catalog", libraryHandler.GetCatalog).Methods("GET")
	api.HandleFunc("/catalog/{id}", libraryHandler.GetBook).Methods("GET")
	api.HandleFunc("/categories", libraryHandler.GetCategories).Methods("GET")
	api.HandleFunc("/search", libraryHandler.SearchBooks).Methods("GET")
	api.HandleFunc("/books/{id}/similar", libraryHandler.GetSimilarBooks).Methods("GET")

	// History-backed routes (require the user header)
	userMiddleware := UserMiddleware()

	personal := api.PathPrefix("").Subrouter()
	personal.Use(userMiddleware)
	personal.HandleFunc("/recommendations", libraryHandler.GetRecommendations).Methods("GET")
	personal.HandleFunc("/trending", libraryHandler.GetTrending).Methods("GET")
	personal.HandleFunc("/history/{bookId}", libraryHandler.RecordView).Methods("POST")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:4173",
			"http://localhost:3000",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-User-ID",
		},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler(router)
}
