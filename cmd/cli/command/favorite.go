package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

var favoriteCmd = &cobra.Command{
	Use:   "favorite [book-id]",
	Short: "Add a book to your favorites, or remove it if already there",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		if err := loadCatalog(cmd.Context()); err != nil {
			return err
		}

		if err := app.ToggleFavorite(cmd.Context(), id); err != nil {
			return err
		}

		if app.Caches().IsFavorite(id) {
			fmt.Printf("✅ Added %q to your favorites\n", bookTitle(id))
		} else {
			fmt.Printf("✅ Removed %q from your favorites\n", bookTitle(id))
		}
		return nil
	},
}
