package handlers

import (
	"net/http"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
)

// Route describes one endpoint for the root banner.
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   bool   `json:"auth"`
}

type bannerResponse struct {
	Service   string  `json:"service"`
	Version   string  `json:"version"`
	Endpoints []Route `json:"endpoints"`
}

// Root lists the API's endpoints.
func Root(service, version string, routes []Route) http.HandlerFunc {
	body := bannerResponse{Service: service, Version: version, Endpoints: routes}
	return func(w http.ResponseWriter, r *http.Request) {
		envelope.Success(w, http.StatusOK, body, "")
	}
}
