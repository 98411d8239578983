package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"ultradl/internal/analytics"
	"ultradl/internal/clipboard"
	"ultradl/internal/config"
	"ultradl/internal/consts"
	"ultradl/internal/donate"
	"ultradl/internal/httpclient"
	"ultradl/internal/metadata"
	"ultradl/internal/observability"
	"ultradl/internal/orchestrator"
	"ultradl/internal/panel"
	"ultradl/internal/progress"
	"ultradl/internal/proxy"
	"ultradl/internal/saver"
	"ultradl/internal/transfer"
	httpserver "ultradl/pkg/http/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is one wired client session.
type App struct {
	log *slog.Logger
	cfg *config.Config
	out io.Writer

	metrics    *observability.Metrics
	metricsSrv *httpserver.Server
	plausible  *analytics.Plausible
	saver      *saver.Saver

	Panel   *panel.Panel
	Orch    *orchestrator.Orchestrator
	Modal   *donate.Modal
	Copier  *donate.Copier
	Tracker analytics.Tracker
	Clip    clipboard.Clipboard
}

// AppOptions are the process-level pieces of an App.
type AppOptions struct {
	// Out is where the panel and summaries are printed.
	Out io.Writer
	// ProgressOut receives the progress bar; nil disables it.
	ProgressOut io.Writer
	Clipboard   clipboard.Clipboard
	// Transport replaces the network transport in tests.
	Transport http.RoundTripper
}

// NewApp wires every component from cfg.
func NewApp(log *slog.Logger, cfg *config.Config, opt AppOptions) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.New(reg)

	proxyMgr, err := proxy.New(cfg.Proxy.List, cfg.Proxy.HealthCheck, cfg.Proxy.HealthTimeout)
	if err != nil {
		return nil, fmt.Errorf("proxy: %w", err)
	}
	proxyMgr.WithObservability(log, metrics)

	client := httpclient.New(log, cfg, metrics, httpclient.Options{Proxy: proxyMgr, Base: opt.Transport})

	trackers := analytics.Multi{analytics.NewMetrics(metrics)}

	var plausible *analytics.Plausible
	if cfg.Analytics.Enabled {
		plausible = analytics.NewPlausible(log, client, analytics.PlausibleOptions{
			Endpoint: cfg.Analytics.Endpoint,
			Domain:   cfg.Analytics.Domain,
			Timeout:  cfg.Analytics.Timeout,
			Rate:     cfg.Analytics.Rate,
			Burst:    cfg.Analytics.Burst,
		})
		trackers = append(trackers, plausible)
	}

	state := progress.New(metrics.SetProgress)
	if opt.ProgressOut != nil {
		state.Observe(progress.NewBar(opt.ProgressOut, "downloading").Observer())
	}

	out := opt.Out
	if out == nil {
		out = io.Discard
	}

	pnl := panel.New(log, panel.Options{Output: out})

	clip := opt.Clipboard
	if clip == nil {
		clip = clipboard.System{}
	}

	sv := saver.New(log, cfg.Dir.Output)

	orch := orchestrator.New(log, orchestrator.Deps{
		Info:     metadata.New(log, client, cfg.Server.BaseURL, cfg.HTTP.InfoTimeout),
		Fetcher:  transfer.New(log, client, cfg.Server.BaseURL, cfg.HTTP.DownloadTimeout, metrics),
		Saver:    sv,
		Panel:    pnl,
		Tracker:  trackers,
		Progress: state,
		Metrics:  metrics,
	}, orchestrator.Options{IndexFilenames: cfg.Dir.IndexFilenames})

	app := &App{
		log:       log.With(slog.String("package", "cli")),
		cfg:       cfg,
		out:       out,
		metrics:   metrics,
		plausible: plausible,
		saver:     sv,
		Panel:     pnl,
		Orch:      orch,
		Modal:     donate.NewModal(trackers),
		Copier:    donate.NewCopier(cfg.Donate.Addresses, clip, trackers),
		Tracker:   trackers,
		Clip:      clip,
	}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())

		app.metricsSrv, err = httpserver.New(mux, httpserver.Options{Addr: cfg.Metrics.Addr})
		if err != nil {
			return nil, fmt.Errorf("metrics server: %w", err)
		}

		app.log.Info("metrics server started", slog.String("addr", app.metricsSrv.Addr()))
	}

	return app, nil
}

// Start runs the page-load steps and returns the autofilled link, if any.
func (a *App) Start(ctx context.Context) string {
	a.saver.Sweep(ctx, consts.StaleTempAge)
	a.Tracker.Track(ctx, consts.EventPageView, nil)

	var link string
	if a.cfg.Clipboard.Autofill {
		link = clipboard.Autofill(ctx, a.log, a.Clip)
	}

	a.Panel.Log(consts.LogReady)

	return link
}

// Close flushes analytics, exports the log when configured and stops the metrics server.
func (a *App) Close(ctx context.Context) error {
	a.Copier.Stop()

	if a.plausible != nil {
		a.plausible.Close()
	}

	var errList []error

	if path := a.cfg.Panel.Export; path != "" {
		if err := a.Panel.Export(ctx, path); err != nil {
			errList = append(errList, err)
		}
	}

	if a.metricsSrv != nil {
		if err := a.metricsSrv.Shutdown(); err != nil {
			errList = append(errList, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	return errors.Join(errList...)
}

// Copy copies the address of coin, printing it when the clipboard is unavailable.
func (a *App) Copy(ctx context.Context, coin string) error {
	err := a.Copier.Copy(ctx, coin)
	if err == nil {
		_, _ = fmt.Fprintln(a.out, a.Copier.State(coin).Label)

		return nil
	}

	addr, addrErr := a.Copier.Address(coin)
	if addrErr != nil {
		return addrErr
	}

	a.Panel.Alert(consts.AlertClipboardFail + addr)

	return err
}

// PrintDonate opens the donation dialog and lists the addresses.
func (a *App) PrintDonate(ctx context.Context) {
	a.Modal.Open(ctx)

	if len(a.cfg.Donate.Coins) == 0 {
		_, _ = fmt.Fprintln(a.out, "no donation addresses configured")

		return
	}

	for _, coin := range a.cfg.Donate.Coins {
		_, _ = fmt.Fprintf(a.out, "%-6s %s\n", coin, a.cfg.Donate.Addresses[coin])
	}
}

// PrintResult lists saved files.
func (a *App) PrintResult(res *orchestrator.Result) {
	if res == nil {
		return
	}

	for _, f := range res.Files {
		_, _ = fmt.Fprintln(a.out, f)
	}
}
