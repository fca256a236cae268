package api

import (
	"net/http"
	"runtime"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
)

type versionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// VersionHandler reports build metadata injected through -ldflags. Unset
// values read "dev" or "unknown".
func VersionHandler(version, gitCommit, buildDate string) http.Handler {
	body := versionResponse{
		Version:   orDefault(version, "dev"),
		GitCommit: orDefault(gitCommit, "unknown"),
		BuildDate: orDefault(buildDate, "unknown"),
		GoVersion: runtime.Version(),
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope.Success(w, http.StatusOK, body, "")
	})
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
