package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/platlayer"
	"github.com/1broseidon/platlayer/internal/config"
	"github.com/1broseidon/platlayer/internal/logging"
	"github.com/1broseidon/platlayer/internal/mcp"
)

// Native window systems want every call from the process's main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "events":
		os.Exit(runEvents(os.Args[2:]))
	case "devices":
		os.Exit(runDevices(os.Args[2:]))
	case "backends":
		os.Exit(runBackends(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: platlayer <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  events              Open a window and print its event stream")
	fmt.Fprintln(w, "  devices             List connected input devices")
	fmt.Fprintln(w, "  backends            List compiled-in backends")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config path         Print the default config path")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'platlayer <command> --help' for command-specific options.")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func loadResult(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

// openPlatform opens a platform with a logger built from cfg. The returned
// func closes both.
func openPlatform(cfg *config.Config, backendName string) (*platlayer.Platform, *slog.Logger, func(), error) {
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	p, err := platlayer.Open(platlayer.Options{Config: cfg, Backend: backendName, Logger: logger})
	if err != nil {
		_ = closer.Close()
		return nil, nil, nil, err
	}
	return p, logger, func() {
		if err := p.Close(); err != nil {
			logger.Warn("platform close failed", "error", err)
		}
		_ = closer.Close()
	}, nil
}

// notifyContext cancels the returned context on SIGINT or SIGTERM and wakes
// the platform so a blocked Wait returns.
func notifyContext(p *platlayer.Platform) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
			p.Wake()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runEvents(args []string) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: platlayer events [--path PATH] [--backend NAME] [--window PRESET] [--no-window] [--json] [--duration D]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open a window and print every event until it is closed, the duration")
		fmt.Fprintln(os.Stderr, "elapses or the process is interrupted.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	path := fs.String("path", "", "Config file path (default: ~/.config/platlayer/config.yaml)")
	backendName := fs.String("backend", "", "Backend to use (overrides config)")
	preset := fs.String("window", "", "Window preset from the config")
	noWindow := fs.Bool("no-window", false, "Only print device events")
	asJSON := fs.Bool("json", false, "Print one JSON object per event")
	duration := fs.Duration("duration", 0, "Stop after this long (0 runs until closed)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	p, logger, closeAll, err := openPlatform(cfg, *backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeAll()

	var win platlayer.WindowID
	if !*noWindow {
		var w platlayer.Window
		if *preset != "" {
			w, err = p.CreateWindowPreset(*preset)
		} else {
			wc := platlayer.DefaultWindowConfig()
			wc.Title = "platlayer events"
			wc.Resizable = true
			w, err = p.CreateWindow(wc)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		win = w.ID
		logger.Info("window created", "window", uint64(w.ID), "backend", p.Backend())
	}

	ctx, cancel := notifyContext(p)
	defer cancel()
	var deadline time.Time
	if *duration > 0 {
		deadline = time.Now().Add(*duration)
	}

	enc := json.NewEncoder(os.Stdout)
	for ctx.Err() == nil {
		timeout := time.Duration(-1)
		if !deadline.IsZero() {
			timeout = time.Until(deadline)
			if timeout <= 0 {
				return 0
			}
		}
		ev, ok := p.Wait(timeout)
		if !ok {
			if err := p.Err(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			continue
		}
		info := mcp.DescribeEvent(ev)
		if *asJSON {
			if err := enc.Encode(info); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		} else {
			fmt.Println(formatEvent(info))
		}

		we, isWindow := ev.(platlayer.WindowEvent)
		if !isWindow || we.Window != win || win == 0 {
			continue
		}
		switch we.Kind {
		case platlayer.WindowCloseRequested:
			if err := p.CloseWindow(win); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		case platlayer.WindowClosed:
			return 0
		}
	}
	return 0
}

func formatEvent(info mcp.EventInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%10.3f %-7s %-15s", info.TimeMS, info.Type, info.Kind)
	if info.Window != 0 {
		fmt.Fprintf(&b, " window=%d", info.Window)
	}
	if info.Device != 0 {
		fmt.Fprintf(&b, " device=%d", info.Device)
	}
	keys := make([]string, 0, len(info.Fields))
	for k := range info.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, info.Fields[k])
	}
	return b.String()
}

func runDevices(args []string) int {
	fs := flag.NewFlagSet("devices", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: platlayer devices [--path PATH] [--backend NAME] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List input devices attached at startup.")
	}
	path := fs.String("path", "", "Config file path (default: ~/.config/platlayer/config.yaml)")
	backendName := fs.String("backend", "", "Backend to use (overrides config)")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg.Reconcile.IntervalMS = 0
	if !cfg.Devices.Enabled {
		fmt.Fprintln(os.Stderr, "device discovery is disabled in the config (devices.enabled: false)")
		return 1
	}
	p, _, closeAll, err := openPlatform(cfg, *backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeAll()

	devices := p.Devices()
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(devices); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return 0
	}
	fmt.Printf("%-4s %-11s %-9s %-6s %-11s %s\n", "ID", "CLASS", "STATE", "BUS", "VID:PID", "NAME")
	for _, d := range devices {
		fmt.Printf("%-4d %-11s %-9s %-6s %04x:%04x   %s\n",
			uint64(d.ID), d.Class, d.State, busName(d.Bus), d.Vendor, d.Product, d.Name)
	}
	return 0
}

func busName(bus uint16) string {
	switch bus {
	case 0x03:
		return "usb"
	case 0x05:
		return "bt"
	case 0x11:
		return "i8042"
	case 0x18:
		return "i2c"
	case 0x19:
		return "host"
	case 0:
		return "-"
	default:
		return fmt.Sprintf("0x%02x", bus)
	}
}

func runBackends(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stdout, "Usage: platlayer backends")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "List the backends compiled into this binary in auto-selection order.")
		return 0
	}
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "backends takes no arguments")
		return 2
	}
	for _, name := range platlayer.Backends() {
		fmt.Println(name)
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  platlayer config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  platlayer config print [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  platlayer config explain [--path PATH] <yaml.path>")
		fmt.Fprintln(os.Stderr, "  platlayer config path")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/platlayer/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if _, err := loadResult(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/platlayer/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		_ = fs.Bool("effective", false, "Print effective config (default)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadResult(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/platlayer/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadResult(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	case "path":
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(p)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
