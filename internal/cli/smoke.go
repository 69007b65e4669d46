package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-prolific/config"
	"github.com/gaborage/go-prolific/httpclient"
)

// smokeMissingPath is a project that never exists; the API must answer 404.
const smokeMissingPath = "/api/v1/projects/invalid-project-id-that-does-not-exist/"

// smokeBackoffSteps is how many backoff delays the retry report lists.
const smokeBackoffSteps = 4

// ErrSmokeFailed is returned when any smoke check fails.
var ErrSmokeFailed = errors.New("smoke test failed")

func smokeCmd(env *Env, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Check configuration, authentication and error handling against the API",
		Long: `Run four checks in order and stop at the first failure:

  1. configuration loads and the token is present
  2. the token authenticates (GET /api/v1/workspaces/)
  3. a missing resource is reported as 404
  4. retry settings are reported

The token is only ever printed in redacted form.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmoke(cmd.Context(), env, flags)
		},
	}
}

func runSmoke(ctx context.Context, env *Env, flags *globalFlags) error {
	p := newPrinter(env.Stdout, outputTable)
	p.section("Prolific API client smoke test")

	cfg, ok := smokeConfig(p, env, flags)
	if !ok {
		return fmt.Errorf("%w: configuration", ErrSmokeFailed)
	}

	sess, err := newSession(env, flags, cfg)
	if err != nil {
		p.failure("Client setup failed: %v", err)
		return fmt.Errorf("%w: client setup", ErrSmokeFailed)
	}
	defer func() { _ = sess.Close() }()

	if !smokeAuthentication(ctx, p, sess) {
		return fmt.Errorf("%w: authentication", ErrSmokeFailed)
	}
	if !smokeNotFound(ctx, p, sess) {
		return fmt.Errorf("%w: error handling", ErrSmokeFailed)
	}
	smokeRetry(p, cfg)

	p.section("All checks passed")
	p.success("Configuration loading works")
	p.success("API authentication successful")
	p.success("Error handling works correctly")
	p.success("Retry logic configured")
	return nil
}

func smokeConfig(p *printer, env *Env, flags *globalFlags) (*config.Config, bool) {
	p.section("1. Configuration")
	cfg, err := loadConfig(env, flags)
	if err != nil {
		p.failure("Configuration error: %v", err)
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Category == config.CategoryMissing {
			p.info("Set %s in the environment or a .env file", config.EnvToken)
		}
		return nil, false
	}
	p.success("Configuration loaded")
	p.info("Base URL: %s", cfg.BaseURL)
	p.info("Token: %s", cfg.RedactedToken())
	p.info("Timeout: %ds", cfg.TimeoutSeconds)
	p.info("Max retries: %d", cfg.MaxRetries)
	if cfg.WorkspaceID != "" {
		p.info("Default workspace: %s", cfg.WorkspaceID)
	} else {
		p.info("Default workspace: not set")
	}
	return cfg, true
}

func smokeAuthentication(ctx context.Context, p *printer, sess *session) bool {
	p.section("2. Authentication")
	workspaces, err := sess.svc.ListWorkspaces(ctx)
	switch {
	case err == nil:
	case errors.Is(err, httpclient.ErrAuthentication):
		p.failure("Authentication failed: %v", err)
		p.info("Check that the API token is valid")
		return false
	case errors.Is(err, httpclient.ErrConnection), errors.Is(err, httpclient.ErrTimeout):
		p.failure("Connection error: %v", err)
		p.info("Check the network and PROLIFIC_BASE_URL")
		return false
	default:
		p.failure("Unexpected error: %v", err)
		return false
	}
	p.success("Authentication successful")
	p.info("Found %d workspace(s)", len(workspaces))
	for _, ws := range workspaces[:min(3, len(workspaces))] {
		title := ws.Title
		if title == "" {
			title = "Unnamed"
		}
		p.info("  - %s (ID: %s)", title, ws.ID)
	}
	return true
}

func smokeNotFound(ctx context.Context, p *printer, sess *session) bool {
	p.section("3. Error handling")
	_, err := sess.client.Get(ctx, &httpclient.Request{Path: smokeMissingPath})
	if err == nil {
		p.failure("Expected a 404 error, got success")
		return false
	}
	apiErr, ok := httpclient.AsError(err)
	if !ok || apiErr.StatusCode != http.StatusNotFound {
		p.failure("Unexpected error: %v", err)
		return false
	}
	p.success("404 handled correctly: %s", apiErr.Message)
	return true
}

func smokeRetry(p *printer, cfg *config.Config) {
	p.section("4. Retry logic")
	steps := make([]string, 0, smokeBackoffSteps)
	for i := range min(cfg.MaxRetries, smokeBackoffSteps) {
		steps = append(steps, httpclient.BaseBackoff(i).String())
	}
	p.info("Max retries: %d", cfg.MaxRetries)
	if len(steps) > 0 {
		p.info("Exponential backoff with jitter: %s, ...", strings.Join(steps, ", "))
	}
	p.info("Retried: 429 rate limits, 5xx server errors, timeouts, connection failures")
	p.success("Retry logic configured")
}
