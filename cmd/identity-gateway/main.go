// Точка входа Identity Gateway — REST-адаптер над Okta Users API.
// Без подкоманды запускает HTTP-сервер (serve); check выполняет
// однократную проверку связи с Okta и печатает результат в формате /health.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bigkaa/identity-gateway/internal/config"
	"github.com/bigkaa/identity-gateway/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "identity-gateway",
	Short: "REST adapter over the Okta Users API",
	Long: `identity-gateway exposes a simplified REST API over the Okta Users API:
user listing with cursor pagination, user lookup, enrolled factors (devices)
and a combined user + devices view.

Configuration is read from environment variables and an optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.Version = config.Version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Identity Gateway завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig загружает конфигурацию; ошибка оборачивается в KindConfiguration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		return cfg, nil
	}

	msg := fmt.Sprintf("Invalid configuration: %v", err)
	if errors.Is(err, config.ErrMissingRequired) {
		msg = fmt.Sprintf("Missing required configuration: %v", err)
	}
	return nil, &service.Error{Kind: service.KindConfiguration, Message: msg, Err: err}
}
