package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/store"
	"github.com/meridies/eventbid/internal/tui"
	"github.com/meridies/eventbid/internal/tui/theme"
)

var editCmd = &cobra.Command{
	Use:   "edit KEY",
	Short: "Edit a bid's fields in an interactive form",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	editCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "Save even if someone else changed the bid")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	theme.SetActive(cfg.Appearance.Theme)

	return withSession(cmd.Context(), args[0], func(_ store.Store, sess *session.Session) error {
		f, err := tui.NewBidForm(sess.Bid())
		if err != nil {
			return err
		}
		if err := f.Form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("  Edit cancelled, nothing saved.")
				return nil
			}
			return fmt.Errorf("edit form: %w", err)
		}

		updates := f.Updates()
		if len(updates) == 0 {
			fmt.Println("  No changes.")
			return nil
		}
		if err := sess.Apply(updates...); err != nil {
			return err
		}
		return saveAndReport(cmd, sess, flagOverwrite)
	})
}
