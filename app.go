package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"keylightctl/internal/config"
	"keylightctl/internal/control"
	"keylightctl/internal/discovery"
	"keylightctl/internal/intent"
	"keylightctl/internal/lights"
	"keylightctl/internal/report"
)

type App struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	stdout io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	usage := intent.Usage(programName)

	global := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	global.Usage = func() {}
	configPath := global.String("config", "", "path to a YAML config file")
	verbose := global.BoolP("verbose", "v", false, "log every request to stderr")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(stdout, usage)
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n\n%s", err, usage)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	logger, err := newLogger(cfg.LogLevel, *verbose, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Sugar().With("session", uuid.NewString())
	if cfg.File != "" {
		log.Debugf("loaded config from %s", cfg.File)
	}

	in, err := intent.Parser{DefaultAddress: cfg.IPAddress}.Parse(global.Args())
	if err != nil {
		if errors.Is(err, intent.ErrHelp) {
			fmt.Fprint(stdout, usage)
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n\n%s", err, usage)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{cfg: cfg, log: log, stdout: stdout}
	if err := app.Run(ctx, in); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func (a *App) Run(ctx context.Context, in intent.Intent) error {
	if d, ok := in.(intent.Discover); ok {
		return a.discover(ctx, d)
	}

	target, ok := in.(intent.DeviceIntent)
	if !ok {
		return fmt.Errorf("command %q has no handler", in.Command())
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	addr := target.DeviceAddress()
	light, err := lights.NewElgatoController(addr, a.cfg.Port, &http.Client{Timeout: a.cfg.Timeout}, a.log.Named("elgato"))
	if err != nil {
		return err
	}
	a.log.Debugf("running %s against %s", in.Command(), light.Addr())

	if info, ok := in.(intent.Info); ok {
		acc, err := light.Accessory(ctx)
		if err != nil {
			return err
		}
		return report.Accessory(a.stdout, info.Format, addr, acc)
	}

	state, err := control.New(light).Execute(ctx, target)
	if err != nil {
		var stepErr *control.StepError
		if errors.As(err, &stepErr) && stepErr.Partial() {
			a.log.Warnf("light left partially updated: %v applied before %s failed", stepErr.Applied, stepErr.Step)
		}
		return err
	}

	if status, ok := in.(intent.Status); ok && state != nil {
		return report.State(a.stdout, status.Format, addr, *state)
	}
	return nil
}

func (a *App) discover(ctx context.Context, d intent.Discover) error {
	scanner := discovery.NewScanner(a.log.Named("discovery"), a.cfg.Port)
	found, err := scanner.Scan(ctx, d.Timeout)
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	return report.Discovered(a.stdout, d.Format, found)
}

func newLogger(level string, verbose bool, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}
