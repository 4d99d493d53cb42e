// filepath: internal/cli/server.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backuphub/internal/api/handlers"
	"backuphub/internal/audit"
	"backuphub/internal/config"
	"backuphub/internal/gateway"
	"backuphub/internal/httpserver"
	"backuphub/internal/initconfig"
	"backuphub/internal/logging"
	"backuphub/internal/monitor"
	"backuphub/internal/notify"
	"backuphub/internal/repository"
	"backuphub/internal/services"
	"backuphub/internal/services/auth"

	"github.com/juju/clock"
	"github.com/spf13/afero"
)

// app bundles the services shared by the server and the maintenance commands.
type app struct {
	cfg        *config.Config
	fs         afero.Fs
	gateway    *gateway.Gateway
	repository services.RepositoryService
	user       services.UserService
	monitor    services.MonitorService
}

func buildApp(cfg *config.Config, fs afero.Fs, clk clock.Clock) (*app, error) {
	stores, err := repository.Open(fs, cfg, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to open data stores: %w", err)
	}

	gw := gateway.New(&gateway.ExecRunner{Timeout: cfg.ToolsetTimeout}, cfg.Toolset.Dir)

	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		return nil, err
	}

	userService := services.NewUserService(stores.Users, clk)
	monitorService := services.NewMonitorService(monitor.Dependencies{
		Repos:    stores.Repositories,
		Users:    stores.Users,
		Scanner:  gw,
		Notifier: dispatcher,
		Clock:    clk,
	}, cfg.StatusInterval, cfg.UsageInterval, cfg.MonitorEnabled())

	return &app{
		cfg:        cfg,
		fs:         fs,
		gateway:    gw,
		repository: services.NewRepositoryService(stores.Repositories, gw),
		user:       userService,
		monitor:    monitorService,
	}, nil
}

// newDispatcher builds the alert transports. Both push modes are bounded by
// [push].timeout, independent of the toolset timeout.
func newDispatcher(cfg *config.Config) (*notify.Dispatcher, error) {
	var mailer notify.Mailer
	if cfg.MailEnabled() {
		m, err := notify.NewSMTPMailer(cfg.Mail)
		if err != nil {
			return nil, fmt.Errorf("failed to configure mail transport: %w", err)
		}
		mailer = m
	} else {
		logging.Log.Info("No mail host configured, e-mail alerts are disabled.")
	}

	var relay notify.Pusher
	if cfg.Push.RelayPath != "" {
		relay = notify.NewExecPusher(newRelayRunner(cfg), cfg.Push.RelayPath)
	}

	return notify.NewDispatcher(mailer, cfg.Mail.From, relay, notify.RemoteFactory(cfg.PushTimeout)), nil
}

func newRelayRunner(cfg *config.Config) *gateway.ExecRunner {
	return &gateway.ExecRunner{Timeout: cfg.PushTimeout}
}

// runServer contains the logic to start the HTTP server with graceful shutdown.
func runServer(options *GlobalOptions) error {
	cfg := options.Conf
	a, err := buildApp(cfg, afero.NewOsFs(), clock.WallClock)
	if err != nil {
		return err
	}

	if options.InitConfig != "" {
		logging.Log.Infof("Found init_config, running initialization from: %s", options.InitConfig)
		initconfig.Run(a.user, a.fs, options.InitConfig)
	}
	if _, err := a.user.Operator(); err != nil {
		logging.Log.Warn("No operator account exists yet. Create one with --init_config to receive alerts and API tokens.")
	}

	loggerAuditor := audit.NewLoggerAuditor(cfg.Logging.AuditEnabled, nil)
	authMiddleware := auth.NewMiddleware(a.user)

	h := handlers.NewHandlers(a.repository, a.user, a.monitor, loggerAuditor, cfg)
	r := httpserver.SetupRouter(h, authMiddleware)

	a.monitor.Start()
	// No defer stop here, we stop explicitly during graceful shutdown

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown Setup ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logging.Log.Infof("Server starting on %s (data dir: %s, toolset: %s)", serverAddr, cfg.Storage.DataDir, cfg.Toolset.Dir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-stop
	logging.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.monitor.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Log.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	// Background compactions keep the storage host busy; let them finish.
	a.gateway.Wait()

	logging.Log.Info("Server exiting")
	return nil
}
