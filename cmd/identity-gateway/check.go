package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/identity-gateway/internal/api/handlers"
	"github.com/bigkaa/identity-gateway/internal/config"
	"github.com/bigkaa/identity-gateway/internal/okta"
	"github.com/bigkaa/identity-gateway/internal/service"
)

// errDegraded — Okta недоступна; команда check завершается с кодом 1.
var errDegraded = errors.New("okta connectivity check failed")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe Okta connectivity once and print the /health document",
	Long: `check performs the same probe as GET /health (GET /users?limit=1 against Okta)
and prints the resulting JSON document to stdout.

Exit code is 0 when Okta is reachable and 1 otherwise.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := config.SetupLogger(cfg)

		client, err := okta.New(cfg.OktaBaseURL(), cfg.OktaAPIToken, cfg.OktaTimeout, cfg.OktaCACertPath, logger)
		if err != nil {
			return &service.Error{
				Kind:    service.KindConfiguration,
				Message: fmt.Sprintf("Invalid Okta client configuration: %v", err),
				Err:     err,
			}
		}

		identity := service.NewIdentityService(client, logger)
		return runCheck(cmd.Context(), identity, cfg.OktaTimeout, cmd.OutOrStdout(), logger)
	},
}

// runCheck выполняет пробный запрос и печатает ответ в формате /health.
func runCheck(
	ctx context.Context,
	checker handlers.RemoteChecker,
	timeout time.Duration,
	out io.Writer,
	logger *slog.Logger,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := checker.CheckRemote(probeCtx)
	resp := handlers.BuildHealthResponse(result, time.Now())

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("вывод результата: %w", err)
	}

	if !result.Healthy() {
		logger.Debug("Okta недоступна",
			slog.String("error_type", result.ErrorType),
			slog.String("details", result.ErrorDetails),
		)
		return errDegraded
	}
	return nil
}
