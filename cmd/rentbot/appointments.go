package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var appointmentsCmd = &cobra.Command{
	Use:   "appointments",
	Short: "Query the appointment ledger",
}

var appointmentsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List booked viewings, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		app, err := openApp(cmd.Context(), cmd, map[string]string{"booking.ledger_path": "ledger"})
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Ledger == nil {
			return errors.New("no appointment ledger configured (set booking.ledger_path or --ledger)")
		}
		appts, err := app.Ledger.List(cmd.Context(), userID, limit)
		if err != nil {
			return fmt.Errorf("error listing appointments: %w", err)
		}
		if len(appts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No appointments found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSER\tPROPERTY\tSLOT\tCONTACT\tBOOKED")
		for _, a := range appts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				a.ID, a.UserID, a.PropertyID, a.Slot.Display, a.Contact.Name, a.CreatedAt.Format(time.DateTime))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(appointmentsCmd)
	appointmentsCmd.AddCommand(appointmentsLsCmd)

	appointmentsLsCmd.Flags().String("ledger", "", "Path of the SQLite ledger")
	appointmentsLsCmd.Flags().StringP("user", "u", "", "Only show appointments of this user id")
	appointmentsLsCmd.Flags().IntP("limit", "n", 50, "Maximum number of appointments")
}
