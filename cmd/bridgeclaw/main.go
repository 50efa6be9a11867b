// BridgeClaw - TCP to chat-thread bridge for game bots
//
// Copyright (c) 2026 BridgeClaw contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/serve"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/sweep"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/version"
)

func NewBridgeclawCommand() *cobra.Command {
	short := fmt.Sprintf("%s bridgeclaw - Game-bot to chat-thread bridge v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "bridgeclaw",
		Short:   short,
		Example: "bridgeclaw serve",
	}

	cmd.AddCommand(
		serve.NewServeCommand(),
		sweep.NewSweepCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewBridgeclawCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
