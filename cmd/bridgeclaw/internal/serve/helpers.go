package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/pkg/delivery"
	"github.com/tinyland-inc/bridgeclaw/pkg/discord"
	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
	"github.com/tinyland-inc/bridgeclaw/pkg/queue"
	"github.com/tinyland-inc/bridgeclaw/pkg/router"
	"github.com/tinyland-inc/bridgeclaw/pkg/server"
	"github.com/tinyland-inc/bridgeclaw/pkg/tailscale"
	"github.com/tinyland-inc/bridgeclaw/pkg/threads"
)

func serveCmd(debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}

	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit, err := server.NewAuditLog(cfg.HostEnv)
	if err != nil {
		return fmt.Errorf("error opening audit log: %w", err)
	}
	defer audit.Close()

	q := queue.NewRedis(cfg.RedisAddr(), cfg.QueueKey)
	if err := q.Ping(ctx); err != nil {
		return fmt.Errorf("error reaching queue backend at %s: %w", cfg.RedisAddr(), err)
	}
	defer q.Close()
	fmt.Printf("✓ Queue backend connected (%s)\n", cfg.RedisAddr())

	routes := router.New()

	chat, err := discord.New(cfg.ClientToken, cfg.AutoArchiveMinutes)
	if err != nil {
		return fmt.Errorf("error creating chat client: %w", err)
	}
	chat.SetReplyHandler(func(threadID, content string) {
		routes.RouteReply(threadID, content)
	})
	if err := chat.Start(ctx); err != nil {
		return fmt.Errorf("error starting chat client: %w", err)
	}
	fmt.Println("✓ Chat platform connected")

	ingress := tailscale.NewIngress(tailscale.Config{
		Enabled:  cfg.TailscaleEnabled,
		Hostname: cfg.TailscaleHostname,
		StateDir: cfg.TailscaleStateDir,
		AuthKey:  cfg.TailscaleAuthKey,
	})
	ln, err := ingress.Listen(cfg.ListenAddr())
	if err != nil {
		chat.Stop(ctx)
		return fmt.Errorf("error opening listener: %w", err)
	}
	if cfg.TailscaleEnabled {
		fmt.Println("✓ Tailnet ingress started")
	}

	srv := server.New(q, routes, audit, cfg.ThreadPrefix, cfg.MaxFrameBytes)
	go func() {
		if err := srv.Serve(ctx, ln); err != nil {
			logger.ErrorCF("server", "Server stopped", map[string]any{"error": err.Error()})
		}
	}()
	fmt.Printf("✓ Bridge listening on %s\n", cfg.ListenAddr())

	consumer := delivery.NewConsumer(q, chat, routes, cfg.ChannelID)
	go consumer.Run(ctx)
	fmt.Println("✓ Delivery loop started")

	sweeper := threads.NewSweeper(
		chat,
		cfg.ChannelID,
		cfg.ThreadPrefix,
		time.Duration(cfg.RetentionDays)*24*time.Hour,
		cfg.SweepSchedule,
	)
	go sweeper.Run(ctx)
	fmt.Printf("✓ Archival sweeper scheduled (%s)\n", cfg.SweepSchedule)

	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()
	ingress.Stop()
	if err := chat.Stop(context.Background()); err != nil {
		logger.WarnCF("discord", "Error closing chat session", map[string]any{"error": err.Error()})
	}
	fmt.Println("✓ Bridge stopped")

	return nil
}
