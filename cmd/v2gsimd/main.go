// v2gsimd -- SECC-side V2G session core daemon (ISO 15118-2 / DIN SPEC
// 70121 SAP handshake through ServiceDiscovery).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/v2gsim/internal/config"
	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/introspect"
	v2gmetrics "github.com/dantte-lp/v2gsim/internal/metrics"
	"github.com/dantte-lp/v2gsim/internal/netio"
	"github.com/dantte-lp/v2gsim/internal/registry"
	"github.com/dantte-lp/v2gsim/internal/secc"
	"github.com/dantte-lp/v2gsim/internal/session"
	appversion "github.com/dantte-lp/v2gsim/internal/version"
)

// shutdownTimeout bounds how long the HTTP server and in-flight sessions
// are given to drain during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// acceptShutdownGrace is added to shutdownTimeout when waiting for
// in-flight sessions to drain, so shutdown does not race a session that
// started tearing down at the exact moment the daemon was asked to stop.
const acceptShutdownGrace = 1 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("v2gsimd starting",
		slog.String("version", appversion.Version),
		slog.String("listen_addr", cfg.Listen.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
		slog.String("evse_id", cfg.EVSE.ID),
	)

	promReg := prometheus.NewRegistry()
	collector := v2gmetrics.NewCollector(promReg)
	sessions := registry.New()
	obs := fanoutObserver{collector, sessions}

	if err := runServers(cfg, obs, sessions, promReg, logger); err != nil {
		logger.Error("v2gsimd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("v2gsimd stopped")
	return 0
}

// fanoutObserver delivers each session.Observer event to every wrapped
// observer in order. Unlike the teacher's single-collector wiring,
// v2gsimd has two independent observers (Prometheus counters, the
// introspection registry) that must not know about each other.
type fanoutObserver []session.Observer

func (f fanoutObserver) SessionStarted(peer string) {
	for _, o := range f {
		o.SessionStarted(peer)
	}
}

func (f fanoutObserver) SessionStopped(peer string, successful bool) {
	for _, o := range f {
		o.SessionStopped(peer, successful)
	}
}

func (f fanoutObserver) FrameSent(peer string) {
	for _, o := range f {
		o.FrameSent(peer)
	}
}

func (f fanoutObserver) FrameReceived(peer string) {
	for _, o := range f {
		o.FrameReceived(peer)
	}
}

func (f fanoutObserver) FrameDropped(peer string) {
	for _, o := range f {
		o.FrameDropped(peer)
	}
}

func (f fanoutObserver) StateTransition(peer, from, to string) {
	for _, o := range f {
		o.StateTransition(peer, from, to)
	}
}

func (f fanoutObserver) Timeout(peer string) {
	for _, o := range f {
		o.Timeout(peer)
	}
}

// runServers sets up and runs the TCP acceptor and the combined
// metrics/introspection HTTP server using an errgroup with a
// signal-aware context for graceful shutdown.
func runServers(
	cfg *config.Config,
	obs session.Observer,
	sessions *registry.Registry,
	promReg *prometheus.Registry,
	logger *slog.Logger,
) error {
	httpSrv := newHTTPServer(cfg.Metrics, promReg, introspect.New(sessions, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("introspection/metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("metrics_path", cfg.Metrics.Path),
		)
		return listenAndServe(gCtx, &net.ListenConfig{}, httpSrv, cfg.Metrics.Addr)
	})

	var activeSessions sync.WaitGroup
	g.Go(func() error {
		return acceptLoop(gCtx, cfg, obs, &activeSessions, logger)
	})

	g.Go(func() error {
		return runWatchdog(gCtx, logger)
	})

	notifyReady(logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, &activeSessions, logger, httpSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// -------------------------------------------------------------------------
// TCP acceptor -- one session.Machine per accepted connection
// -------------------------------------------------------------------------

// acceptLoop accepts V2GTP control connections and spawns one session per
// connection, each running its own Machine to completion in its own
// goroutine (spec §5: "single-threaded cooperative... per session").
func acceptLoop(
	ctx context.Context,
	cfg *config.Config,
	obs session.Observer,
	wg *sync.WaitGroup,
	logger *slog.Logger,
) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", cfg.Listen.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Listen.Addr, err)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	logger.Info("V2GTP acceptor listening", slog.String("addr", cfg.Listen.Addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, cfg, obs, logger)
		}()
	}
}

// handleConn tunes the accepted connection's socket options, builds a
// fresh Session/Machine pair seeded at SupportedAppProtocol, and runs it
// to completion.
func handleConn(ctx context.Context, conn net.Conn, cfg *config.Config, obs session.Observer, logger *slog.Logger) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		linger := cfg.Session.DataLinkDelay + cfg.Session.TransportDelay
		if err := netio.SetGracefulLinger(tcpConn, linger); err != nil {
			logger.Warn("set graceful linger", slog.String("error", err.Error()))
		}
		if err := netio.SetKeepAlive(tcpConn, 30*time.Second); err != nil {
			logger.Warn("set keepalive", slog.String("error", err.Error()))
		}
	}

	sessCfg := session.Config{
		ReadWindow:     cfg.Session.ReadWindow,
		DataLinkDelay:  cfg.Session.DataLinkDelay,
		TransportDelay: cfg.Session.TransportDelay,
	}

	start := secc.NewSupportedAppProtocolState(func() session.State {
		return secc.NewSessionSetupState(cfg.EVSE.ID, func() session.State {
			return secc.NewServiceDiscoveryState(defaultServiceCatalogue())
		})
	})

	sess := session.New(conn, start, exi.NoCodec(), sessCfg, logger, nil)
	m := session.NewMachine(sess, session.WithObserver(obs))
	m.Start(ctx, start.Timeout())
}

// defaultServiceCatalogue is the ServiceDiscoveryRes payload this
// simulator offers: a single AC charging service, the common case for a
// reference SECC with no EVSE-specific service configuration surfaced
// yet (spec §1: service/schedule selection semantics are out of scope).
func defaultServiceCatalogue() []secc.ServiceEntry {
	return []secc.ServiceEntry{
		{ServiceID: 1, ServiceName: "EVChargingService", EnergyModes: []string{"AC_single_phase_core"}},
	}
}

// -------------------------------------------------------------------------
// Systemd integration -- sd_notify + watchdog
// -------------------------------------------------------------------------

func notifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("failed to notify systemd readiness", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: READY")
	}
}

func notifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("failed to notify systemd stopping", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: STOPPING")
	}
}

// runWatchdog sends periodic watchdog keepalives to systemd at half the
// configured WatchdogSec interval; it exits immediately if no watchdog is
// configured.
func runWatchdog(ctx context.Context, logger *slog.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("failed to check systemd watchdog", slog.String("error", err.Error()))
		return nil
	}
	if interval == 0 {
		logger.Debug("systemd watchdog not configured, skipping keepalive")
		return nil
	}

	tickInterval := interval / 2
	logger.Info("systemd watchdog enabled",
		slog.Duration("watchdog_sec", interval),
		slog.Duration("keepalive_interval", tickInterval),
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, wdErr := daemon.SdNotify(false, daemon.SdNotifyWatchdog); wdErr != nil {
				logger.Warn("failed to send watchdog keepalive", slog.String("error", wdErr.Error()))
			}
		}
	}
}

// -------------------------------------------------------------------------
// Graceful shutdown
// -------------------------------------------------------------------------

// gracefulShutdown signals systemd, waits for in-flight sessions to reach
// their own graceful-stop completion (bounded by shutdownTimeout plus
// acceptShutdownGrace), then
// shuts down the HTTP server.
func gracefulShutdown(ctx context.Context, activeSessions *sync.WaitGroup, logger *slog.Logger, srv *http.Server) error {
	logger.Info("initiating graceful shutdown")
	notifyStopping(logger)

	drained := make(chan struct{})
	go func() {
		activeSessions.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(shutdownTimeout + acceptShutdownGrace):
		logger.Warn("shutdown timed out waiting for in-flight sessions to drain")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// -------------------------------------------------------------------------
// HTTP server setup
// -------------------------------------------------------------------------

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

// newHTTPServer mounts the Prometheus metrics handler and the session
// introspection mux (spec §4.7) on a single HTTP server, since both are
// cheap diagnostics surfaces answered by the same process.
func newHTTPServer(cfg config.MetricsConfig, reg *prometheus.Registry, introspectSrv *introspect.Server) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", introspectSrv.Handler())
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// -------------------------------------------------------------------------
// Config + logging
// -------------------------------------------------------------------------

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
