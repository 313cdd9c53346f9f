package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
	Long: `List, inspect, and remove sessions in the configured store.

Only the redis backend outlives the process, so these commands are mostly
useful with store.backend: redis.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		ids, err := app.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Active Sessions:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		userID := args[0]
		s, err := app.Sessions.Load(cmd.Context(), userID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("session '%s' not found", userID)
		}
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", userID, err)
		}

		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <user-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		var errs []error
		for _, userID := range args {
			if err := app.Sessions.Delete(cmd.Context(), userID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", userID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", userID)
		}
		return errors.Join(errs...)
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Print the recent conversation of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		app, err := openApp(cmd.Context(), cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		msgs, err := app.History.Recent(cmd.Context(), args[0], limit)
		if err != nil {
			return fmt.Errorf("error reading history: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(msgs) == 0 {
			fmt.Fprintln(out, "No history found.")
			return nil
		}
		for _, m := range msgs {
			fmt.Fprintf(out, "[%s] %s: %s\n", time.Unix(m.At, 0).Format(time.DateTime), m.Role, m.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)

	sessionHistoryCmd.Flags().IntP("limit", "n", 20, "Number of messages to show")
}
