package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review commands",
	Long:  `Write reviews. Each book can be reviewed once per account.`,
}

var reviewAddCmd = &cobra.Command{
	Use:   "add [book-id]",
	Short: "Review a book (rating 1-5)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		rating, _ := cmd.Flags().GetInt("rating")
		text, _ := cmd.Flags().GetString("text")

		if err := loadCatalog(cmd.Context()); err != nil {
			return err
		}
		if err := app.SubmitReview(cmd.Context(), id, rating, text); err != nil {
			return err
		}

		fmt.Printf("Book: %s\n", bookTitle(id))
		fmt.Printf("Your rating: %s\n", stars(rating))
		return nil
	},
}

func init() {
	reviewCmd.AddCommand(reviewAddCmd)

	reviewAddCmd.Flags().IntP("rating", "r", 0, "Rating from 1 to 5")
	reviewAddCmd.Flags().StringP("text", "m", "", "Review text (optional)")
	reviewAddCmd.MarkFlagRequired("rating")
}
