package send

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DevRickLin/telegram-relay-bridge/cmd/relay/internal"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/repo"
	"github.com/DevRickLin/telegram-relay-bridge/internal/data"
	"github.com/DevRickLin/telegram-relay-bridge/internal/infra/telegram"
)

func NewSendCommand() *cobra.Command {
	var parseMode string

	cmd := &cobra.Command{
		Use:     "send <chat_id> <message>",
		Short:   "Send a text message to a chat as the bot",
		Example: `  relay send -- -1001234567890 "maintenance at 18:00"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chat id %q: %w", args[0], err)
			}

			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			if cfg.Telegram.Token == "" {
				return fmt.Errorf("TELEGRAM_TOKEN must be set")
			}
			if parseMode == "" {
				parseMode = cfg.Relay.ParseMode
			}

			client, err := telegram.NewClient(cfg.Telegram.Token, cfg.Debug, nil)
			if err != nil {
				return err
			}
			return sendText(cmd.Context(), data.NewTelegramRepo(client), chatID, args[1], parseMode, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&parseMode, "parse-mode", "", "Telegram parse mode (Markdown, MarkdownV2, HTML)")

	return cmd
}

func sendText(ctx context.Context, transport repo.Transport, chatID int64, text, parseMode string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := transport.SendMessage(ctx, chatID, text, parseMode); err != nil {
		return err
	}
	fmt.Fprintln(out, "Message sent successfully!")
	return nil
}
