package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// HealthResponse is the subset of the /health body the healthcheck reads.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthCheckResult is the outcome of one health check.
type HealthCheckResult struct {
	IsHealthy  bool
	Status     string
	StatusCode int
	Error      string
}

func newHealthcheckCommand() *cobra.Command {
	var url string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Call the /health endpoint and exit 0 only when the server reports healthy.
Intended for container HEALTHCHECK directives.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = defaultHealthURL()
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result := performHealthCheck(ctx, url)
			if !result.IsHealthy {
				if result.Error != "" {
					return fmt.Errorf("health check failed: %s", result.Error)
				}
				return fmt.Errorf("server unhealthy: status=%s http=%d", result.Status, result.StatusCode)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "healthy (%s)\n", url)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func defaultHealthURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s/health", port)
}

func performHealthCheck(ctx context.Context, url string) HealthCheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return HealthCheckResult{Error: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return HealthCheckResult{Error: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	result := HealthCheckResult{StatusCode: resp.StatusCode}
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		result.Error = fmt.Sprintf("invalid health response: %v", err)
		return result
	}
	result.Status = body.Status
	result.IsHealthy = resp.StatusCode == http.StatusOK && body.Status == "healthy"
	return result
}
