package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/internal/api"
	"github.com/Nemanja264/Servizo/internal/bus"
	"github.com/Nemanja264/Servizo/internal/cart"
	"github.com/Nemanja264/Servizo/internal/cash"
	"github.com/Nemanja264/Servizo/internal/config"
	"github.com/Nemanja264/Servizo/internal/dashboard"
	"github.com/Nemanja264/Servizo/internal/http/handlers"
	httpapi "github.com/Nemanja264/Servizo/internal/http"
	"github.com/Nemanja264/Servizo/internal/kv"
	"github.com/Nemanja264/Servizo/internal/logger"
	"github.com/Nemanja264/Servizo/internal/orders"
	"github.com/Nemanja264/Servizo/internal/session"
	"github.com/Nemanja264/Servizo/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store, err := kv.NewFileStore(cfg.StateDir, log)
	if err != nil {
		log.Fatal("state store init failed", zap.Error(err))
	}

	signals := bus.New()
	if cfg.RabbitMQURL != "" {
		relay, err := bus.NewAMQPRelay(cfg.RabbitMQURL, signals, log)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without cross-terminal relay", zap.Error(err))
		} else {
			signals.AttachRelay(relay)
			defer relay.Close()
			log.Info("cross-terminal relay enabled", zap.String("exchange", "servizo.signals"))
		}
	} else {
		log.Info("cross-terminal relay disabled (RABBITMQ_URL is empty)")
	}

	client, err := api.NewClient(cfg.ServerBaseURL, cfg.HTTPTimeout, log)
	if err != nil {
		log.Fatal("api client init failed", zap.Error(err))
	}

	resolver := session.NewResolver(store, signals)
	carts := cart.NewStore(store, signals)
	signaler := cash.NewSignaler(store, signals)
	tracker := orders.NewTracker(client, log)
	poller := dashboard.NewPoller(client, signaler, cfg.DashboardPollInterval, log)

	wsServer := ws.New(signals, cfg.WSHeartbeatInterval, log)
	if cfg.TerminalRole == config.RoleStaff {
		poller.Start(context.Background())
	} else {
		// Guest terminals only poll the dashboard while a staff context is
		// attached over the websocket; attach/detach is the on/off switch.
		wsServer.OnStaffPresence(func(active bool) {
			if active {
				poller.Start(context.Background())
			} else {
				poller.Stop()
			}
		})
	}
	defer poller.Stop()

	h := &handlers.Handler{
		Logger:   log,
		Config:   cfg,
		API:      client,
		Store:    store,
		Resolver: resolver,
		Carts:    carts,
		Tracker:  tracker,
		Poller:   poller,
		Signaler: signaler,
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(h, wsServer, log, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("terminal api ready", zap.String("base", "/api"))
		log.Info("terminal ws ready", zap.String("base", "/ws"))
		log.Info("terminal listening", zap.String("addr", cfg.HTTPAddr), zap.String("role", cfg.TerminalRole))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
