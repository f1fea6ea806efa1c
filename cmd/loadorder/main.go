// Command loadorder is a plain CLI over the same library the HTTP
// server wraps: point it at a game's plugin directory and it prints
// the resolved load order, one plugin per line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/mod-troubleshooter/loadorder/internal/config"
	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/loadorder"
	"github.com/mod-troubleshooter/loadorder/internal/metadata"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("loadorder", flag.ContinueOnError)
	fs.SetOutput(stderr)

	gameSlug := fs.String("game", "", "game to target (e.g. skyrimse, fallout4, morrowind)")
	pluginsDir := fs.String("plugins-dir", "", "directory containing the game's installed plugins (required)")
	activeFile := fs.String("active-file", "", "path to the active-plugins list (plugins.txt)")
	orderFile := fs.String("order-file", "", "path to the separate load order file, if the game uses one")
	showActiveOnly := fs.Bool("active-only", false, "print only active plugins")
	check := fs.Bool("check", false, "exit non-zero if the load order is not self-consistent")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *pluginsDir == "" {
		fmt.Fprintln(stderr, "loadorder: -plugins-dir is required")
		fs.Usage()
		return 2
	}

	gameID := game.ID(0)
	if *gameSlug != "" {
		id, err := config.ParseGameSlug(*gameSlug)
		if err != nil {
			fmt.Fprintf(stderr, "loadorder: %v\n", err)
			return 2
		}
		gameID = id
	} else {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(stderr, "loadorder: %v\n", err)
			return 2
		}
		gameID = cfg.DefaultGame
	}

	profile, ok := game.Lookup(gameID)
	if !ok {
		fmt.Fprintf(stderr, "loadorder: unsupported game %v\n", gameID)
		return 2
	}

	provider, err := metadata.NewCachingProvider(512)
	if err != nil {
		fmt.Fprintf(stderr, "loadorder: %v\n", err)
		return 1
	}

	core := loadorder.New(profile, loadorder.Paths{
		PluginsDirectory:  *pluginsDir,
		ActivePluginsFile: *activeFile,
		LoadOrderFile:     *orderFile,
	}, provider)

	ctx := context.Background()
	if err := core.Load(ctx); err != nil {
		fmt.Fprintf(stderr, "loadorder: %v\n", err)
		return 1
	}

	if *check {
		consistent, err := core.IsSelfConsistent()
		if err != nil {
			fmt.Fprintf(stderr, "loadorder: %v\n", err)
			return 1
		}
		if !consistent {
			fmt.Fprintln(stderr, "loadorder: load order is not self-consistent")
			return 1
		}
	}

	printPlugins(stdout, core.Plugins(), *showActiveOnly, isatty.IsTerminal(stdout.Fd()))
	return 0
}

func printPlugins(w *os.File, entries []loadorder.Entry, activeOnly, tty bool) {
	for _, e := range entries {
		if activeOnly && !e.Active {
			continue
		}
		if !tty {
			fmt.Fprintln(w, e.Name)
			continue
		}
		mark := " "
		if e.Active {
			mark = "*"
		}
		kind := ""
		switch {
		case e.IsLight:
			kind = " [light]"
		case e.IsMaster:
			kind = " [master]"
		}
		fmt.Fprintf(w, "%s %s%s\n", mark, e.Name, kind)
	}
}
