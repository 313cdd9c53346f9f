package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/propertytek/rentbot"
	"github.com/propertytek/rentbot/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Starts an interactive chat. Plain lines are sent as requests; slash
commands (/details, /book, /slot, /cancel, /restart, /help, /new, /quit)
map onto explicit actions.

With --headless, prompts and the banner are suppressed so the chat can be
driven by a script over Stdin/Stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		userID, _ := cmd.Flags().GetString("user")
		headless, _ := cmd.Flags().GetBool("headless")

		app, err := openApp(ctx, cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()
		go app.Run(ctx)

		r := rentbot.NewRunner(userID)
		r.Input = os.Stdin
		r.Output = os.Stdout
		r.Headless = headless || !tui.IsInteractive(os.Stdin)

		if !r.Headless {
			tui.PrintBanner(os.Stdout, rentbot.Version, app.Gate.Markets())
		}
		if tui.IsInteractive(os.Stdout) {
			render, err := tui.NewRenderer(tui.Width(os.Stdout))
			if err != nil {
				app.Logger.Warn("Markdown rendering disabled", "err", err)
			} else {
				r.Renderer = render
			}
		}

		return r.Run(ctx, app)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("user", "u", "local", "User id of the conversation")
	chatCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, no prompts)")
}
