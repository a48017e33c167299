package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/handler"
	"github.com/parisxmas/OxiEnroll/internal/router"
	"github.com/parisxmas/OxiEnroll/internal/service"
	"github.com/parisxmas/OxiEnroll/internal/wizard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	log := a.log

	sessions := wizard.NewSessions(a.cfg.SessionTTL, time.Minute, a.cfg.MaxSessions)
	defer sessions.Close()

	configSvc := service.NewConfigService(a.configRepo, log)
	subSvc := service.NewSubmissionService(a.subRepo, log)
	uploadSvc := service.NewUploadService(a.uploadRepo, a.cfg.MaxUploadMB, log)
	authSvc := a.authService()
	enrollSvc := service.NewEnrollmentService(configSvc, sessions, subSvc, uploadSvc, log)

	r := router.New(log, a.cfg.JWTSecret, authSvc, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc, log),
		Admin:      handler.NewAdminHandler(configSvc, log),
		Dashboard:  handler.NewDashboardHandler(configSvc, subSvc, log),
		Submission: handler.NewSubmissionHandler(subSvc, log),
		Enrollment: handler.NewEnrollmentHandler(enrollSvc, a.cfg.MaxUploadMB, log),
		Upload:     handler.NewUploadHandler(uploadSvc, log),
		Health:     handler.NewHealthHandler(a.store, log),
	})

	// The server starts right away; index creation and the admin account
	// are set up in the background.
	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		log.Info("init: starting")
		if err := a.ensureIndexes(ctx); err != nil {
			log.Warn("init: index creation failed", zap.Error(err))
		}
		if err := authSvc.SeedAdmin(ctx, a.cfg.AdminUser, a.cfg.AdminPass); err != nil {
			log.Warn("init: failed to seed admin", zap.Error(err))
		}
		if _, err := configSvc.Get(ctx); errors.Is(err, service.ErrConfigUnavailable) {
			log.Warn("init: no enrollment configuration; run `oxienroll seed`")
		}
		log.Info("init: all done")
	}()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("http: listening", zap.String("addr", a.cfg.HTTPAddr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-initDone
	return err
}
