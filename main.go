package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"yogastore-backend/config"
	"yogastore-backend/routes"
	"yogastore-backend/services"
	"yogastore-backend/session"
	"yogastore-backend/store"
	"yogastore-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.NopLogger,
		fx.Provide(
			config.Load,
			config.NewStore,
			config.NewSessionStore,
			newNotifier,
			newAuthService,
			services.NewCatalogService,
			services.NewPurchaseService,
			services.NewProfileService,
			services.NewReconcileService,
			newRouter,
		),
		fx.Invoke(configure, startReconciler, startServer),
	).Run()
}

func configure(cfg *config.Config) {
	config.SetupLogging(cfg)
	utils.BcryptCost = cfg.BcryptCost
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

func newNotifier(cfg *config.Config) services.Notifier {
	if !cfg.TwilioEnabled() {
		logrus.Info("Twilio not configured, purchase receipts are logged only")
		return services.LogNotifier{}
	}
	return services.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.TwilioWhatsAppNumber)
}

func newAuthService(cfg *config.Config, st store.Store, sessions session.Store) *services.AuthService {
	return services.NewAuthService(st, sessions, cfg.JWTSecret, cfg.SessionTTL())
}

func newRouter(cfg *config.Config, auth *services.AuthService, catalog *services.CatalogService,
	purchases *services.PurchaseService, profiles *services.ProfileService) *gin.Engine {
	return routes.SetupRouter(routes.Deps{
		Config:    cfg,
		Auth:      auth,
		Catalog:   catalog,
		Purchases: purchases,
		Profiles:  profiles,
	})
}

func startReconciler(lc fx.Lifecycle, cfg *config.Config, reconciler *services.ReconcileService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return reconciler.StartScheduler(cfg.ReconcileSchedule)
		},
		OnStop: func(ctx context.Context) error {
			reconciler.Stop()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, cfg *config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			printRoutes(r)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logrus.WithError(err).Fatal("server stopped")
				}
			}()
			logrus.WithField("port", cfg.Port).Info("server started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		logrus.Debugf("%-6s %s", route.Method, route.Path)
	}
}
