// Command civctl controls a CI-V receiver from the command line.
//
// It runs a single verb and exits, or opens an interactive shell that
// accepts the same verbs. With -simulate it talks to an in-memory ICR-8500
// instead of a serial port.
//
// Usage:
//
//	civctl [flags] <command> [args]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-model string         Rig model name (default "ICR-8500")
//	-port string          Serial device (default "/dev/ttyUSB0")
//	-rate int             Baud rate, 0 selects the model maximum
//	-address string       CI-V address in hex, empty selects the model default
//	-transceive string    Transceive policy: off, manual, periodic (default "off")
//	-protocol-log string  Write a CBOR protocol log (.clog) to this file
//	-state-file string    Persist the last tuned state in this JSON file
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-interactive          Start the interactive shell
//	-simulate             Use the built-in simulator instead of a serial port
//
// Examples:
//
//	# Tune the receiver
//	civctl -port /dev/ttyUSB0 set freq 145.5M
//
//	# Read the S-meter
//	civctl get level strength
//
//	# Watch front panel changes for a minute
//	civctl -transceive manual monitor 1m
//
//	# Explore without hardware
//	civctl -simulate -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/civ-protocol/civ-go/cmd/civctl/interactive"
	"github.com/civ-protocol/civ-go/internal/rigsim"
	"github.com/civ-protocol/civ-go/pkg/log"
	"github.com/civ-protocol/civ-go/pkg/persistence"
	"github.com/civ-protocol/civ-go/pkg/rig"
	"github.com/civ-protocol/civ-go/pkg/transport"
)

// offline verbs need the descriptor only.
var offline = map[string]bool{"caps": true, "models": true, "ports": true}

func main() {
	config, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	args := flag.Args()

	if !config.Interactive && len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if len(args) > 0 && args[0] == "ports" {
		if err := listPorts(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(config, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseConfig layers defaults, the config file and explicitly given flags.
func parseConfig(fs *flag.FlagSet, argv []string) (Config, error) {
	config := DefaultConfig()
	var flagCfg Config

	fs.StringVar(&flagCfg.ConfigFile, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&flagCfg.Model, "model", config.Model, "Rig model name")
	fs.StringVar(&flagCfg.Port, "port", config.Port, "Serial device")
	fs.IntVar(&flagCfg.Rate, "rate", 0, "Baud rate, 0 selects the model maximum")
	fs.StringVar(&flagCfg.Address, "address", "", "CI-V address in hex, empty selects the model default")
	fs.StringVar(&flagCfg.Transceive, "transceive", config.Transceive, "Transceive policy: off, manual, periodic")
	fs.DurationVar(&flagCfg.PollInterval, "poll-interval", 0, "Poll interval for -transceive periodic")
	fs.DurationVar(&flagCfg.Timeout, "timeout", 0, "Reply timeout per attempt, 0 uses the model default")
	fs.IntVar(&flagCfg.Retry, "retry", 0, "Transmissions per command, 0 uses the model default")
	fs.IntVar(&flagCfg.OpenAttempts, "open-attempts", 0, "Retry opening the port this many times")
	fs.StringVar(&flagCfg.ProtocolLog, "protocol-log", "", "Write a CBOR protocol log (.clog) to this file")
	fs.StringVar(&flagCfg.StateFile, "state-file", "", "Persist the last tuned state in this JSON file")
	fs.StringVar(&flagCfg.LogLevel, "log-level", config.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&flagCfg.Interactive, "interactive", false, "Start the interactive shell")
	fs.BoolVar(&flagCfg.Simulate, "simulate", false, "Use the built-in simulator instead of a serial port")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `civctl - CI-V rig control

Usage:
  civctl [flags] <command> [args]

Commands:
  caps | models | ports | status
  get freq|mode|vfo|level <name>|func <name>|ts|channel <n>
  set freq <f> [vfo]|mode <m> [width]|vfo <v>|level <name> <v>|func <name> on|off|ts <step>|mem <n>
  op <cpy|xchg|from_vfo|to_vfo|mcl>
  monitor [duration]

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		return config, err
	}

	if flagCfg.ConfigFile != "" {
		if err := LoadConfigFile(flagCfg.ConfigFile, &config); err != nil {
			return config, err
		}
	}
	applyFlags(&config, &flagCfg, visitedFlags(fs))

	return config, config.Validate()
}

func visitedFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// applyFlags copies the flags present in set from src into dst.
func applyFlags(dst, src *Config, set map[string]bool) {
	dst.ConfigFile = src.ConfigFile
	dst.Interactive = src.Interactive
	dst.Simulate = src.Simulate

	if set["model"] {
		dst.Model = src.Model
	}
	if set["port"] {
		dst.Port = src.Port
	}
	if set["rate"] {
		dst.Rate = src.Rate
	}
	if set["address"] {
		dst.Address = src.Address
	}
	if set["transceive"] {
		dst.Transceive = src.Transceive
	}
	if set["poll-interval"] {
		dst.PollInterval = src.PollInterval
	}
	if set["timeout"] {
		dst.Timeout = src.Timeout
	}
	if set["retry"] {
		dst.Retry = src.Retry
	}
	if set["open-attempts"] {
		dst.OpenAttempts = src.OpenAttempts
	}
	if set["protocol-log"] {
		dst.ProtocolLog = src.ProtocolLog
	}
	if set["state-file"] {
		dst.StateFile = src.StateFile
	}
	if set["log-level"] {
		dst.LogLevel = src.LogLevel
	}
}

func setupLogging(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func listPorts(w io.Writer) error {
	ports, err := transport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found")
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

func run(config Config, args []string) error {
	desc, err := config.Descriptor()
	if err != nil {
		return err
	}
	opts, err := config.RigOptions()
	if err != nil {
		return err
	}

	var out, errOut io.Writer = os.Stdout, os.Stderr
	var shell *interactive.Shell
	if config.Interactive {
		shell, err = interactive.NewShell("civ> ")
		if err != nil {
			return err
		}
		out, errOut = shell.Stdout(), shell.Stderr()
	}

	logger := setupLogging(config.LogLevel, errOut)
	opts.Logger = logger

	var sim *rigsim.Sim
	if config.Simulate {
		sim = rigsim.New(rigsim.Config{Descriptor: desc, Address: opts.Address, Logger: logger.With("component", "rigsim")})
		opts.Opener = sim.Opener()
		opts.Path = "sim:" + strings.ToLower(desc.ModelName)
	}

	var loggers []log.Logger
	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			return fmt.Errorf("open protocol log: %w", err)
		}
		defer fl.Close()
		loggers = append(loggers, fl)
	}
	if config.LogLevel == "debug" {
		loggers = append(loggers, log.NewSlogAdapter(logger.With("component", "protocol")))
	}
	if len(loggers) > 0 {
		opts.ProtocolLogger = log.NewMultiLogger(loggers...)
	}
	if config.StateFile != "" {
		opts.StateStore = persistence.NewStateStore(config.StateFile)
	}

	runner := interactive.NewRunner(out, opts.Transceive, sim)
	opts.OnFreqEvent = runner.FreqEvent
	opts.OnModeEvent = runner.ModeEvent

	r, err := rig.Init(desc, opts)
	if err != nil {
		return err
	}
	defer r.Cleanup()
	runner.Bind(r)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(args) > 0 && offline[args[0]] && !config.Interactive {
		return runner.Exec(ctx, args)
	}

	if err := r.Open(ctx); err != nil {
		return fmt.Errorf("open %s: %w", opts.Path, err)
	}
	logger.Info("rig open", "model", desc.ModelName, "port", opts.Path, "session", r.SessionID())
	if prev := r.PreviousState(); prev != nil && prev.Freq != 0 {
		logger.Info("previous session", "freq", prev.Freq, "mode", prev.Mode, "saved", prev.SavedAt)
	}

	if config.Interactive {
		shell.Run(ctx, cancel, runner)
		return closeRig(r)
	}

	err = runner.Exec(ctx, args)
	if errors.Is(err, interactive.ErrUsage) {
		flag.Usage()
	}
	return errors.Join(err, closeRig(r))
}

func closeRig(r *rig.Rig) error {
	if err := r.Close(); err != nil && !errors.Is(err, rig.ErrNotOpen) {
		return err
	}
	return nil
}
