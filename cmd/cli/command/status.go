package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"onlibry/pkg/models"
)

// statusCmd toggles a book on the reading lists. A book is on at most one
// list; running the same subcommand twice takes it off again.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage your reading lists",
	Long:  `Put a book on "Reading now" or "To read". Repeating the command removes it.`,
}

var statusReadingCmd = &cobra.Command{
	Use:   "reading [book-id]",
	Short: "Toggle a book on the Reading now list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleStatus(cmd, args[0], models.StatusReading)
	},
}

var statusToReadCmd = &cobra.Command{
	Use:   "to-read [book-id]",
	Short: "Toggle a book on the To read list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleStatus(cmd, args[0], models.StatusToRead)
	},
}

func init() {
	statusCmd.AddCommand(statusReadingCmd)
	statusCmd.AddCommand(statusToReadCmd)
}

func toggleStatus(cmd *cobra.Command, arg string, target models.ReadingStatus) error {
	id, err := parseBookID(arg)
	if err != nil {
		return err
	}
	if err := loadCatalog(cmd.Context()); err != nil {
		return err
	}

	if err := app.SetStatus(cmd.Context(), id, target); err != nil {
		return err
	}

	if st, ok := app.Caches().Status(id); ok {
		fmt.Printf("✅ %q is now on %s\n", bookTitle(id), statusLabel(st))
	} else {
		fmt.Printf("✅ Removed %q from %s\n", bookTitle(id), statusLabel(target))
	}
	return nil
}
