package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/five82/shelf/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override shelf config path (optional)")
	prefsPath := flag.String("prefs", "", "override UI preferences path (optional)")
	refreshSeconds := flag.Int("refresh", 0, "background refresh interval in seconds (optional, 0 uses config)")
	flag.Usage = usage
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, PrefsPath: *prefsPath}
	if refresh := *refreshSeconds; refresh > 0 {
		opts.RefreshEvery = refresh
	}

	args := flag.Args()
	var err error
	if len(args) == 0 || args[0] == "tui" {
		err = app.Run(ctx, opts)
	} else {
		err = app.RunCommand(ctx, opts, args, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: shelf [flags] [tui | %s] [args]\n\n", strings.Join(app.Commands, " | "))
	flag.PrintDefaults()
}
