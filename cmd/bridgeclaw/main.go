// BridgeClaw - one-way chat bridge from a OneBot source to Telegram

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/run"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/version"
)

func NewBridgeclawCommand() *cobra.Command {
	short := fmt.Sprintf("bridgeclaw - chat bridge v%s", internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "bridgeclaw",
		Short:   short,
		Example: "bridgeclaw run",
	}

	cmd.AddCommand(
		run.NewRunCommand(),
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
