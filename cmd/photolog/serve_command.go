package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jo-hoe/photolog/internal/common"
	"github.com/jo-hoe/photolog/internal/core"
	"github.com/jo-hoe/photolog/internal/frontend"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the photolog web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				config.Port = port
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(signalCtx, config)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides the configuration)")
	return cmd
}

func serve(ctx context.Context, config *core.ServiceConfig) error {
	coreService, err := core.NewCoreService(config)
	if err != nil {
		return err
	}

	server := defineServer()
	frontend.NewFrontendService(config, coreService).SetRoutes(server)

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go coreService.RunSweeper(sweepCtx)

	portString := fmt.Sprintf(":%d", config.Port)
	serverErr := make(chan error, 1)

	// Start HTTP server in a goroutine to allow graceful shutdown
	go func() {
		slog.Info("starting http server",
			"address", portString,
			"capture_device", coreService.Device().Name(),
			"store", config.Store.Type)
		if err := server.Start(portString); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err, ok := <-serverErr:
		if ok {
			slog.Error("http server error", "error", err)
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := coreService.Close(); err != nil {
		slog.Error("core service close error", "error", err)
	}
	return runErr
}

func defineServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Skip the probe endpoint used for health checks
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/probe"
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRoutePath: true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"route", v.RoutePath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"user_agent", v.UserAgent,
			}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = &common.GenericEchoValidator{}

	return e
}
