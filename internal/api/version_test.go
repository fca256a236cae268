package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	tests := []struct {
		name                            string
		version, gitCommit, buildDate   string
		wantVersion, wantCommit, wantAt string
	}{
		{"all values", "0.1.0", "abc123", "2026-10-01T12:00:00Z", "0.1.0", "abc123", "2026-10-01T12:00:00Z"},
		{"defaults", "", "", "", "dev", "unknown", "unknown"},
		{"partial", "1.0.0", "", "2026-10-01T12:00:00Z", "1.0.0", "unknown", "2026-10-01T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			VersionHandler(tt.version, tt.gitCommit, tt.buildDate).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Success  bool            `json:"success"`
				Response versionResponse `json:"response"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.True(t, body.Success)
			require.Equal(t, tt.wantVersion, body.Response.Version)
			require.Equal(t, tt.wantCommit, body.Response.GitCommit)
			require.Equal(t, tt.wantAt, body.Response.BuildDate)
			require.Equal(t, runtime.Version(), body.Response.GoVersion)
		})
	}
}
