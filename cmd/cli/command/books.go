package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"onlibry/internal/view"
	"onlibry/pkg/models"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books in the catalog",
	Long: `List the catalog, filtered by tab, search text and genre.

Tabs: discover, favorites, reading, to-read, top-rated, new-arrivals, by-genre.
Search matches title, description and author names.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tabName, _ := cmd.Flags().GetString("tab")
		search, _ := cmd.Flags().GetString("search")
		genre, _ := cmd.Flags().GetString("genre")

		if err := loadCatalog(cmd.Context()); err != nil {
			return err
		}

		tab := view.ParseTab(tabName)
		var genreID *int64
		if genre != "" {
			id, err := resolveGenre(genre)
			if err != nil {
				return err
			}
			genreID = &id
			if tabName == "" {
				tab = view.TabByGenre
			}
		}

		books := app.VisibleBooks(tab, search, genreID)
		section := app.Section(tab, books)

		color.New(color.Bold).Println(section.Title)
		fmt.Println(section.Caption)
		fmt.Println(strings.Repeat("─", 50))
		for i, b := range books {
			printBookLine(i+1, b)
		}
		return nil
	},
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book details",
}

var bookShowCmd = &cobra.Command{
	Use:   "show [book-id]",
	Short: "Show a book with its reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		if err := loadCatalog(cmd.Context()); err != nil {
			return err
		}
		if err := app.OpenDetail(cmd.Context(), id); err != nil {
			return err
		}
		defer app.CloseDetail()

		d, ok := app.Detail()
		if !ok {
			return fmt.Errorf("book %d is no longer open", id)
		}
		printBookDetail(d.Book)

		fmt.Println()
		color.New(color.Bold).Printf("Reviews (%d)\n", len(d.Reviews))
		if len(d.Reviews) == 0 {
			fmt.Println("No reviews yet.")
		}
		for _, r := range d.Reviews {
			fmt.Printf("%s  %s", stars(r.Rating), r.Author)
			if r.CreatedAt != nil {
				fmt.Printf("  (%s)", r.CreatedAt.Local().Format("2006-01-02"))
			}
			fmt.Println()
			if r.Text != "" {
				fmt.Printf("   %s\n", r.Text)
			}
		}
		return nil
	},
}

func init() {
	booksCmd.Flags().StringP("tab", "t", "", "Tab to show (default discover)")
	booksCmd.Flags().StringP("search", "s", "", "Search text")
	booksCmd.Flags().StringP("genre", "g", "", "Genre name or ID (implies --tab by-genre)")

	bookCmd.AddCommand(bookShowCmd)
}

// resolveGenre accepts a genre ID or a case-insensitive name.
func resolveGenre(arg string) (int64, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return id, nil
	}
	g, ok := app.Catalog().GenreByName(arg)
	if !ok {
		return 0, fmt.Errorf("unknown genre %q, see 'onlibry genres'", arg)
	}
	return g.ID, nil
}

func printBookLine(n int, b models.Book) {
	marks := ""
	if app.Caches().IsFavorite(b.ID) {
		marks += " ♥"
	}
	if st, ok := app.Caches().Status(b.ID); ok {
		marks += " [" + statusLabel(st) + "]"
	}

	fmt.Printf("%d. %s (ID: %d)%s\n", n, b.Title, b.ID, color.RedString(marks))
	if names := b.AuthorNames(); len(names) > 0 {
		fmt.Printf("   by %s\n", strings.Join(names, ", "))
	}
	fmt.Printf("   Rating: %.1f (%d reviews)\n", b.ResolvedRating(), b.ReviewCount())
}

func printBookDetail(b models.Book) {
	color.New(color.Bold).Println(b.Title)
	fmt.Printf("ID: %d\n", b.ID)
	if names := b.AuthorNames(); len(names) > 0 {
		fmt.Printf("Authors: %s\n", strings.Join(names, ", "))
	}
	if len(b.Genres) > 0 {
		genres := make([]string, 0, len(b.Genres))
		for _, g := range b.Genres {
			genres = append(genres, g.Name)
		}
		fmt.Printf("Genres: %s\n", strings.Join(genres, ", "))
	}
	if b.Year != nil {
		fmt.Printf("Year: %d\n", *b.Year)
	}
	fmt.Printf("Rating: %.1f (%d reviews)\n", b.ResolvedRating(), b.ReviewCount())
	if app.Caches().IsFavorite(b.ID) {
		fmt.Println("In your favorites")
	}
	if st, ok := app.Caches().Status(b.ID); ok {
		fmt.Printf("Reading list: %s\n", statusLabel(st))
	}
	if d := b.DescriptionText(); d != "" {
		fmt.Printf("\n%s\n", d)
	}
}

func statusLabel(st models.ReadingStatus) string {
	switch st {
	case models.StatusReading:
		return "Reading now"
	case models.StatusToRead:
		return "To read"
	case models.StatusFinished:
		return "Finished"
	}
	return st.String()
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > models.MaxReviewRating {
		rating = models.MaxReviewRating
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", models.MaxReviewRating-rating)
}
