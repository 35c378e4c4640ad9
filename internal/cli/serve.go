package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"traceview/internal/web"
)

// serveViewer is a test seam for running the web viewer.
var serveViewer = web.Serve

// signalContext is a test seam for the serve command's lifetime.
var signalContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runServe builds the handler for the serve command.
func runServe(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		var common commonFlags
		common.bind(fs, "info")
		addr := fs.String("addr", "", "Address to listen on (overrides config)")
		assetsBaseURL := fs.String("assets-base-url", "", "Base URL for viewer assets (overrides config)")
		positional, code, ok := parseFlags(cmd, fs, args, stdout, stderr)
		if !ok {
			return code
		}
		if len(positional) > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(positional, " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		env, err := common.resolve(stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Config error:\n%v\n", err)
			return ExitError
		}
		defer env.close()
		cfg := web.Config{
			Addr:           env.cfg.Server.Addr,
			Source:         env.loader,
			RenderWait:     env.cfg.RenderWait(),
			AssetsBaseURL:  env.cfg.Server.AssetsBaseURL,
			Logger:         env.logger,
			TracerProvider: env.tracing,
		}
		if *addr != "" {
			cfg.Addr = *addr
		}
		if *assetsBaseURL != "" {
			cfg.AssetsBaseURL = *assetsBaseURL
		}

		ctx, stop := signalContext()
		defer stop()
		fmt.Fprintf(stdout, "Serving trace viewer at http://%s (trace API %s)\n", cfg.Addr, env.cfg.API.BaseURL)
		if err := serveViewer(ctx, cfg); err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}
