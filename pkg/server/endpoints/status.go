package endpoints

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/server/store"
)

//go:embed api.md
var apiReference []byte

// StatusResponse is the JSON form of GET /
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RegisterStatusEndpoints registers the status page and health check. Neither
// requires a token.
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus()).Methods("GET")
	s.Router.HandleFunc("/health", handleHealth(s.HealthStore)).Methods("GET")
}

func version() string {
	if v := os.Getenv("REGISTRAR_VERSION_DISPLAY"); v != "" {
		return v
	}
	return "0.1.0"
}

var (
	statusPageOnce sync.Once
	statusPage     []byte
	statusPageErr  error
)

// renderStatusPage converts the embedded API reference to HTML once.
func renderStatusPage() ([]byte, error) {
	statusPageOnce.Do(func() {
		md := goldmark.New(goldmark.WithExtensions(extension.GFM))
		var body bytes.Buffer
		if statusPageErr = md.Convert(apiReference, &body); statusPageErr != nil {
			return
		}
		var page bytes.Buffer
		page.WriteString("<!DOCTYPE html>\n<html>\n  <head>\n    <meta charset=\"utf-8\">\n    <title>Registrar Status</title>\n  </head>\n  <body>\n")
		page.WriteString("    <p class=\"status-text\">Your registrar server is running!</p>\n")
		page.Write(body.Bytes())
		page.WriteString("  </body>\n</html>\n")
		statusPage = page.Bytes()
	})
	return statusPage, statusPageErr
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Check if JSON is requested via Accept header or format query param
		accept := r.Header.Get("Accept")
		format := r.URL.Query().Get("format")
		if format == "json" || strings.Contains(accept, "application/json") {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(StatusResponse{Status: "ok", Version: version()})
			return
		}

		page, err := renderStatusPage()
		if err != nil {
			http.Error(w, "status page unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}

func handleHealth(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.CheckConnectivity(r.Context()); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "error",
				Error:  "database connectivity check failed",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
