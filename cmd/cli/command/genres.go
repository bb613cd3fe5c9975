package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List all available genres",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadCatalog(cmd.Context()); err != nil {
			return err
		}

		genres := app.Catalog().Genres()
		if len(genres) == 0 {
			fmt.Println("No genres found.")
			return nil
		}

		fmt.Printf("Available genres (%d total):\n\n", len(genres))
		for _, g := range genres {
			fmt.Printf("ID: %d | Name: %s\n", g.ID, g.Name)
		}
		return nil
	},
}
