package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/pkg/discord"
	"github.com/tinyland-inc/bridgeclaw/pkg/threads"
)

func NewSweepCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired archived bridge threads once and exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return sweepCmd(dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List expired threads without deleting them")

	return cmd
}

func sweepCmd(dryRun bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	chat, err := discord.New(cfg.ClientToken, cfg.AutoArchiveMinutes)
	if err != nil {
		return fmt.Errorf("error creating chat client: %w", err)
	}
	if err := chat.Start(ctx); err != nil {
		return fmt.Errorf("error starting chat client: %w", err)
	}
	defer chat.Stop(context.Background())

	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	sweeper := threads.NewSweeper(chat, cfg.ChannelID, cfg.ThreadPrefix, retention, cfg.SweepSchedule)

	if dryRun {
		expired, err := sweeper.Expired(ctx)
		if err != nil {
			return fmt.Errorf("error listing expired threads: %w", err)
		}
		if len(expired) == 0 {
			fmt.Println("No expired threads")
			return nil
		}
		for _, th := range expired {
			fmt.Printf("would delete %s (%s, created %s)\n", th.Name, th.ID, th.CreatedAt.Format(time.RFC3339))
		}
		return nil
	}

	deleted, err := sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("error sweeping threads: %w", err)
	}
	fmt.Printf("✓ Deleted %d expired thread(s)\n", deleted)
	return nil
}
