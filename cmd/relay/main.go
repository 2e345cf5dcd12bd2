package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DevRickLin/telegram-relay-bridge/cmd/relay/internal"
	"github.com/DevRickLin/telegram-relay-bridge/cmd/relay/internal/run"
	"github.com/DevRickLin/telegram-relay-bridge/cmd/relay/internal/send"
	"github.com/DevRickLin/telegram-relay-bridge/cmd/relay/internal/settings"
	"github.com/DevRickLin/telegram-relay-bridge/cmd/relay/internal/version"
)

func NewRelayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relay",
		Short:   fmt.Sprintf("relay - Telegram private chat to channel relay v%s", internal.GetVersion()),
		Example: "relay run --debug",
	}

	cmd.AddCommand(
		run.NewRunCommand(),
		send.NewSendCommand(),
		settings.NewSettingsCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewRelayCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
