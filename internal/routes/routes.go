package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"inventorycam/internal/camera"
	"inventorycam/internal/config"
	"inventorycam/internal/handler"
	"inventorycam/internal/logger"
	"inventorycam/internal/middleware"
)

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Config       *config.Config
	Logger       *logger.Logger
	Camera       handler.CameraController
	Frames       camera.FrameSource
	Model        handler.ModelStatus
	Orchestrator handler.Orchestrator
	Inventory    handler.InventoryService
	Captures     handler.CaptureLog
	Hub          handler.EventHub
	Notifier     handler.Notifier
	Validate     *validator.Validate
	// ArtifactRoot is the directory served under /artifacts/. Empty disables it.
	ArtifactRoot string
	StaticDir    string
}

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the router with the authentication middleware.
func SetupRoutes(deps Dependencies) http.Handler {
	cfg, log := deps.Config, deps.Logger
	if deps.Validate == nil {
		deps.Validate = validator.New()
	}
	if deps.StaticDir == "" {
		deps.StaticDir = "static"
	}

	r := mux.NewRouter()

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(deps.StaticDir))))
	if deps.ArtifactRoot != "" {
		r.PathPrefix("/artifacts/").Handler(http.StripPrefix("/artifacts/", http.FileServer(http.Dir(deps.ArtifactRoot)))).Methods(http.MethodGet, http.MethodHead)
	}

	api := r.PathPrefix("/api").Subrouter()

	// Camera
	api.HandleFunc("/camera/start", handler.CameraStartHandler(deps.Camera, deps.Model, deps.Notifier, log)).Methods(http.MethodPost)
	api.HandleFunc("/camera/stop", handler.CameraStopHandler(deps.Camera, deps.Model, deps.Notifier)).Methods(http.MethodPost)
	api.HandleFunc("/camera/status", handler.CameraStatusHandler(deps.Camera, deps.Model)).Methods(http.MethodGet)
	api.HandleFunc("/camera/preview", handler.CameraPreviewHandler(deps.Camera, log)).Methods(http.MethodGet)

	// Capture
	limiter := middleware.NewRateLimiter(cfg.CaptureRateLimit, cfg.CaptureBurst, log)
	api.Handle("/capture", limiter.Limit(handler.CaptureHandler(deps.Orchestrator, deps.Frames, log))).Methods(http.MethodPost)

	// Inventory
	api.HandleFunc("/inventory", handler.ListInventoryHandler(deps.Inventory, log)).Methods(http.MethodGet)
	api.HandleFunc("/inventory", handler.AddItemHandler(deps.Inventory, deps.Validate, log)).Methods(http.MethodPost)
	api.HandleFunc("/inventory", handler.RemoveItemHandler(deps.Inventory, deps.Validate, log)).Methods(http.MethodDelete)

	// Capture log
	api.HandleFunc("/captures", handler.ListCapturesHandler(deps.Captures, log)).Methods(http.MethodGet)
	api.HandleFunc("/captures", handler.DeleteCaptureHandler(deps.Captures, log)).Methods(http.MethodDelete)
	api.HandleFunc("/captures/{id}", handler.GetCaptureHandler(deps.Captures, log)).Methods(http.MethodGet)
	api.HandleFunc("/captures/{id}", handler.DeleteCaptureHandler(deps.Captures, log)).Methods(http.MethodDelete)

	// Events
	api.HandleFunc("/events", handler.EventsWebsocketHandler(deps.Hub, log))

	// Log endpoints
	logFiles := map[string]string{
		"info":    logger.InfoFile,
		"warning": logger.WarningFile,
		"error":   logger.ErrorFile,
	}
	for name, file := range logFiles {
		r.HandleFunc("/logs/"+name, handler.ShowLogsHandler(log, file)).Methods(http.MethodGet)
		r.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(log, file)).Methods(http.MethodPost, http.MethodDelete)
	}

	// Auth endpoints
	r.HandleFunc("/auth/login", handler.LoginHandler(cfg, log)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", handler.LogoutHandler).Methods(http.MethodGet, http.MethodPost)

	// Automatic HTML handler mapping for example: /captures -> static/captures.html
	r.PathPrefix("/").HandlerFunc(dynamicHTMLHandler(deps.StaticDir)).Methods(http.MethodGet)

	return middleware.AuthMiddleware(handler.AuthSecret(cfg))(r)
}
