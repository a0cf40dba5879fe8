// Command ircbot runs an IRC bot from a YAML configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	bot "github.com/ircflow/ircbot"
	"github.com/ircflow/ircbot/config"
	"github.com/ircflow/ircbot/plugins"
)

// available maps plugin names to constructors. The config's bot.plugins
// list selects and orders them.
var available = map[string]func() bot.Plugin{
	"example":  func() bot.Plugin { return plugins.NewExample() },
	"logger":   func() bot.Plugin { return plugins.NewLogger() },
	"firehose": func() bot.Plugin { return plugins.NewFirehose() },
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ircbot:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "ircbot.yaml", "path to the configuration file")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	b, err := bot.New(cfg, bot.WithLogger(logger))
	if err != nil {
		return err
	}

	selected := make([]bot.Plugin, 0, len(cfg.Bot.Plugins))
	for _, name := range cfg.Bot.Plugins {
		construct, ok := available[name]
		if !ok {
			return fmt.Errorf("unknown plugin %q", name)
		}
		selected = append(selected, construct())
	}
	if err := b.Register(selected...); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		b.Shutdown("shutting down")
	}()

	return b.Run(context.Background())
}
