package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"kaoqin/internal/capture"
	"kaoqin/internal/config"
	"kaoqin/internal/ics"
	"kaoqin/internal/importer"
	appLog "kaoqin/internal/log"
	"kaoqin/internal/schedule"
	"kaoqin/internal/semester"
	"kaoqin/internal/store"
	"kaoqin/internal/timetable"
	"kaoqin/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	debug      bool
	once       bool
}

func main() {
	appLog.Info("kaoqin starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"semester", conf.Semester,
		"semester_start", conf.SemesterStart,
		"max_weeks", conf.MaxWeeks,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone, falling back to local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	table, err := buildPeriodTable(conf)
	if err != nil {
		appLog.Error("invalid period table", err)
		os.Exit(1)
	}
	builder := timetable.NewBuilder(buildRowSlots(conf), table)
	calendar := semester.NewCalendar(conf.SemesterAnchor(loc), conf.MaxWeeks, func() time.Time {
		return time.Now().In(loc)
	})

	st, err := store.Open(conf.Database.DSN)
	if err != nil {
		appLog.Error("failed to open database", err)
		os.Exit(1)
	}

	cacheDir := "/var/lib/kaoqin/ics-cache"
	if flags.debug {
		cacheDir = "./cache/ics-cache"
	}
	fetcher := ics.NewFetcher(cacheDir)
	imp := importer.NewService(conf, loc, fetcher, st)

	srv := web.NewServer(conf, st, builder, calendar, imp, loc, flags.debug)
	srv.CaptureFn = func(ctx context.Context) error {
		return runCapture(ctx, conf, srv.PreviewPath())
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	httpServer := &http.Server{
		Addr:         conf.Listen,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen, "debug", flags.debug)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if flags.once {
		runRefreshPipeline(ctx, imp, srv)
		shutdown(httpServer)
		appLog.Info("kaoqin exiting")
		return
	}

	// Periodic feed refresh, driven by the cron expression from config.
	var scheduler *cron.Cron
	if conf.RefreshCron != "" {
		scheduler = cron.New(cron.WithLocation(loc))
		_, err := scheduler.AddFunc(conf.RefreshCron, func() {
			runRefreshPipeline(ctx, imp, srv)
		})
		if err != nil {
			appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		scheduler.Start()
		appLog.Info("refresh scheduler started", "cron", conf.RefreshCron)
	} else {
		appLog.Info("no refresh cron configured, feeds refresh only on demand")
	}

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		appLog.Error("HTTP server failed", err)
		cancel()
	}

	if scheduler != nil {
		stopCtx := scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
		}
	}
	shutdown(httpServer)
	appLog.Info("kaoqin exiting")
}

// runRefreshPipeline re-imports every subscribed feed and then re-renders
// the timetable snapshot.
func runRefreshPipeline(ctx context.Context, imp *importer.Service, srv *web.Server) {
	sum, err := imp.RefreshAll(ctx)
	if err != nil {
		appLog.Error("feed refresh failed", err)
		return
	}
	appLog.Info("feed refresh done",
		"sources", sum.Sources,
		"created", sum.Created,
		"updated", sum.Updated,
	)

	if srv.CaptureFn != nil {
		if err := srv.CaptureFn(ctx); err != nil {
			appLog.Error("snapshot capture failed", err)
		}
	}
}

// runCapture renders the /timetable page to a PNG on disk.
func runCapture(ctx context.Context, conf *config.Config, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	opts := capture.CaptureOptions{
		URL:        "http://" + hostport(conf.Listen) + "/timetable",
		OutputPath: outputPath,
	}
	if conf.BasicAuth != nil {
		opts.BasicAuthUser = conf.BasicAuth.Username
		opts.BasicAuthPassword = conf.BasicAuth.Password
	}
	return capture.CaptureTimetablePNG(ctx, opts)
}

// hostport turns a listen address like ":8080" into a dialable host:port.
func hostport(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "127.0.0.1" + listen
	}
	return listen
}

func shutdown(s *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}
}

// buildPeriodTable converts the configured period rows into the resolver's
// minute-based table.
func buildPeriodTable(conf *config.Config) (*schedule.PeriodTable, error) {
	spans := make([]schedule.PeriodSpan, 0, len(conf.Periods))
	for _, p := range conf.Periods {
		start, err := schedule.ParseClock(p.Start)
		if err != nil {
			return nil, err
		}
		end, err := schedule.ParseClock(p.End)
		if err != nil {
			return nil, err
		}
		spans = append(spans, schedule.PeriodSpan{Period: p.Period, Start: start, End: end})
	}
	return schedule.NewPeriodTable(spans)
}

func buildRowSlots(conf *config.Config) []timetable.RowSlot {
	slots := make([]timetable.RowSlot, 0, len(conf.RowSlots))
	for _, rs := range conf.RowSlots {
		slots = append(slots, timetable.RowSlot{
			Index:       rs.Index,
			Label:       rs.Label,
			StartPeriod: rs.StartPeriod,
			EndPeriod:   rs.EndPeriod,
		})
	}
	return slots
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/kaoqin/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging and local cache paths")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh+snapshot cycle and exit")

	flag.Parse()

	return cfg
}
