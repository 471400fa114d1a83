// Package doorphone runs a door intercom on top of the linphonec console client.
//
// An [App] supervises the client process, polls the door button, registers the SIP
// account and dials a configured number when the button is pressed. Long dials and
// calls are hung up by watchdogs. The current state is optionally served over HTTP
// together with Prometheus metrics.
package doorphone

//go:generate errtrace -w .

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/doorphone/button"
	"github.com/ghettovoice/doorphone/config"
	"github.com/ghettovoice/doorphone/dns"
	"github.com/ghettovoice/doorphone/httpapi"
	"github.com/ghettovoice/doorphone/linphone"
	"github.com/ghettovoice/doorphone/log"
	"github.com/ghettovoice/doorphone/metrics"
	"github.com/ghettovoice/doorphone/policy"
)

// Version is the doorphone version, set at build time.
var Version = "dev"

// Options override the parts an [App] builds from the config by default.
type Options struct {
	Logger *slog.Logger
	// Spawner starts the client. Default is [linphone.ExecSpawner].
	Spawner linphone.Spawner
	// Button reads the door button. Default is a [button.SysfsReader] on the configured root.
	Button button.Reader
}

// App is an assembled doorphone.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	phone   *linphone.Phone
	btn     button.Reader
	ctrl    *policy.Controller
	metrics *metrics.Metrics
	http    *httpapi.Server
}

// New assembles an app from cfg. Nothing is started until [App.Run].
func New(cfg *config.Config, opts *Options) *App {
	if opts == nil {
		opts = &Options{}
	}
	logger := log.Or(opts.Logger)

	a := &App{
		cfg:     cfg,
		log:     logger,
		btn:     opts.Button,
		metrics: metrics.New(),
	}
	if a.btn == nil {
		a.btn = button.NewSysfsReader(cfg.GPIO.Root)
	}

	phoneOpts := cfg.PhoneOptions(logger.With("component", "linphone"))
	phoneOpts.Spawner = opts.Spawner
	a.phone = linphone.NewPhone(phoneOpts)

	polOpts := cfg.PolicyOptions(logger.With("component", "policy"))
	polOpts.Observer = a.metrics
	if cfg.SIP.CheckRegistrar {
		polOpts.Resolver = &dns.Resolver{NameServer: cfg.SIP.NameServer}
	}
	a.ctrl = policy.New(a.phone, a.btn, polOpts)

	if cfg.HTTP.Listen != "" {
		a.http = httpapi.NewServer(
			cfg.HTTP.Listen,
			httpapi.NewHandler(a.phone, a.metrics.Handler(), logger.With("component", "http")),
			logger,
		)
	}
	return a
}

// Phone returns the client supervisor.
func (a *App) Phone() *linphone.Phone { return a.phone }

// Metrics returns the app metrics.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Run sets up the button, starts the client and drives the policy until ctx is done.
// The client is then shut down. Run returns nil when it stopped because of ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.btn.Setup(a.cfg.GPIO.Config); err != nil {
		return errtrace.Wrap(err)
	}

	detach := a.metrics.Attach(a.phone)
	defer detach()

	a.log.LogAttrs(ctx, slog.LevelInfo, "starting doorphone",
		slog.String("version", Version),
		slog.Any("config", a.cfg),
	)

	if err := a.phone.Start(ctx); err != nil {
		return errtrace.Wrap(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var httpErr error
	if a.http != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.http.ListenAndServe(runCtx); err != nil {
				httpErr = err
				a.log.LogAttrs(runCtx, slog.LevelError, "http api failed", slog.Any("error", err))
				cancel()
			}
		}()
	}

	err := a.ctrl.Run(runCtx)
	cancel()
	wg.Wait()

	closeCtx, closeCancel := context.WithTimeout(context.WithoutCancel(ctx), a.closeTimeout())
	defer closeCancel()
	closeErr := a.phone.Close(closeCtx)
	if closeErr != nil {
		a.log.LogAttrs(ctx, slog.LevelWarn, "client did not stop in time", slog.Any("error", closeErr))
	}

	a.log.LogAttrs(ctx, slog.LevelInfo, "doorphone stopped")

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return errtrace.Wrap(errors.Join(err, httpErr, closeErr))
}

func (a *App) closeTimeout() time.Duration {
	return a.cfg.Linphone.QuitTimeout.D() + time.Second
}
