package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pp9653/warera-ranking-sys/core/loader"
	"github.com/pp9653/warera-ranking-sys/core/logger"
	"github.com/pp9653/warera-ranking-sys/core/middleware/auth"
	"github.com/pp9653/warera-ranking-sys/core/middleware/rayid"
	"github.com/pp9653/warera-ranking-sys/feature/report"
	"github.com/pp9653/warera-ranking-sys/feature/roster"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the roster HTTP server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		logg := a.log
		zap.ReplaceGlobals(logg)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           a.cfg.Server.ReadTimeout(),
			WriteTimeout:          a.cfg.Server.WriteTimeout(),
		})

		var sink report.Sink
		if a.cfg.Storage.Enabled {
			if sink, err = a.sink(""); err != nil {
				return err
			}
		}

		mgr := loader.NewManager()
		mgr.Register(roster.NewFeature(ctx, a.service, logg))
		mgr.Register(report.NewFeature(a.service, sink, logg))

		// RayID first so every later log line carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok", "token": a.client.HasToken()})
		})

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Skip: []string{"/health"}}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("addr", a.cfg.Server.Addr()))
			errCh <- app.Listen(a.cfg.Server.Addr())
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
