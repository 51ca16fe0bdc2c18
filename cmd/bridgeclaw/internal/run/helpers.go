package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/pkg/bridge"
	"github.com/tinyland-inc/bridgeclaw/pkg/bus"
	"github.com/tinyland-inc/bridgeclaw/pkg/dispatch"
	"github.com/tinyland-inc/bridgeclaw/pkg/events"
	"github.com/tinyland-inc/bridgeclaw/pkg/onebot"
	"github.com/tinyland-inc/bridgeclaw/pkg/telegram"
	"github.com/tinyland-inc/bridgeclaw/pkg/transport"
)

func runCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	log, err := newLogger(cfg.LogLevel, debug)
	if err != nil {
		return err
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	sender, err := telegram.NewSender(cfg.Telegram.Token, log.With().Str("component", "telegram").Logger())
	if err != nil {
		return fmt.Errorf("error creating telegram sender: %w", err)
	}

	msgBus := bus.NewBus()
	client := onebot.NewClient(onebot.Config{
		WSUrl:             cfg.Source.WSUrl,
		AccessToken:       cfg.Source.AccessToken,
		ReconnectInterval: time.Duration(cfg.Source.ReconnectInterval) * time.Second,
	}, msgBus, log.With().Str("component", "onebot").Logger())

	tp := transport.New(telegram.Classify, log.With().Str("component", "transport").Logger())
	disp := dispatch.New(sender, tp, resolveVia(client), cfg.MaxFileDownloadSize,
		log.With().Str("component", "dispatch").Logger())
	conv := events.NewConverter(cfg.Events.Excluded, log.With().Str("component", "events").Logger())
	br := bridge.New(cfg, msgBus, disp, conv, tp, sender, client,
		log.With().Str("component", "bridge").Logger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Run(ctx)
	go br.Run(ctx)

	log.Info().Str("source", cfg.Source.WSUrl).Int("routes", len(cfg.Routes)).
		Msg("bridge started")
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan

	fmt.Println("\nShutting down...")
	msgBus.Close()
	cancel()
	log.Info().Msg("bridge stopped")

	return nil
}

// resolveVia adapts the source client's file lookup to the dispatcher's
// resolver shape.
func resolveVia(client *onebot.Client) dispatch.FileResolver {
	return func(ctx context.Context, groupID, fileID string) (*dispatch.FileInfo, error) {
		info, err := client.GetGroupFile(ctx, groupID, fileID)
		if err != nil {
			return nil, err
		}
		return &dispatch.FileInfo{
			Name: info.Name,
			Size: info.Size,
			URL:  info.URL,
			MD5:  info.MD5,
			SHA1: info.SHA1,
			Path: info.Path,
		}, nil
	}
}

func newLogger(level string, debug bool) (zerolog.Logger, error) {
	if debug {
		level = "debug"
	}
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}
