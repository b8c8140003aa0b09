package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/platlayer/internal/mcp"
	"github.com/1broseidon/platlayer/internal/runtimepath"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: platlayer mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'platlayer mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stdout, "Usage: platlayer mcp serve [--path PATH] [--backend NAME]")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Start the MCP server on stdio. Designed to be invoked by MCP clients.")
		fmt.Fprintln(os.Stdout, "Logs go to the config's log.file, or to mcp.log in the state directory")
		fmt.Fprintln(os.Stdout, "when none is set, since stdout carries the protocol.")
	}
	path := fs.String("path", "", "Config file path (default: ~/.config/platlayer/config.yaml)")
	backendName := fs.String("backend", "", "Backend to use (overrides config)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if cfg.Log.File == "" {
		if cfg.Log.File, err = runtimepath.MCPLogPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resolve log path: %v\n", err)
			return 1
		}
	}

	p, logger, closeAll, err := openPlatform(cfg, *backendName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open platform: %v\n", err)
		return 1
	}
	defer closeAll()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		p.Wake()
	}()

	server := mcp.NewServer(p, logger)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp server stopped", "error", err)
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}
