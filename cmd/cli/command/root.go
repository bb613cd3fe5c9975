package command

// root.go defines the root command for the onlibry CLI application.
// Global flags, configuration and the shared client core are set up here.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"onlibry/cmd/cli/authentication"
	"onlibry/internal/config"
	"onlibry/internal/errors"
	"onlibry/internal/logger"
	"onlibry/internal/resource"
	"onlibry/internal/shelf"
)

var (
	apiURL  string // overrides ONLIBRY_API_URL when set
	cfgFile string // optional config file

	cfg *config.Config
	log *slog.Logger
	app *shelf.Shelf
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "onlibry",
	Short: "onlibry - online library command line client",
	Long: `onlibry is a command line client for the online library. It lets you:
- Browse, search and filter the book catalog
- Keep a list of favorite books
- Track what you are reading now and what you want to read
- Read and write book reviews

Use "onlibry command --help" to see all available commands.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// domain errors were already shown as notices
		var domainErr *errors.Error
		if !errors.As(err, &domainErr) {
			color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (default from ONLIBRY_API_URL)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(genresCmd)
}

// setup loads configuration and wires the client core for every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if apiURL != "" {
		loaded.APIURL = apiURL
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	log = logger.New(logger.Config{
		Format:      cfg.LogFormat,
		Environment: cfg.GoEnv,
		Level:       logger.ParseLevel(cfg.LogLevel),
	})

	client, err := resource.NewHTTPClient(resource.Options{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	app = shelf.New(shelf.Options{
		Client:   client,
		Store:    authentication.NewKeyringStore(cfg.KeyringService),
		Logger:   log,
		Notifier: shelf.NotifierFunc(printNotice),
	})
	return nil
}

// printNotice renders shelf notices: failures in red on stderr, confirmations in green.
func printNotice(n shelf.Notice) {
	if n.Level == shelf.NoticeError {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗", n.Message)
		return
	}
	color.New(color.FgGreen).Println("✓", n.Message)
}

// restore brings back the stored session; a broken keyring only costs the login.
func restore(ctx context.Context) {
	if err := app.Restore(ctx); err != nil {
		log.Warn("session_restore_skipped", "error", err)
	}
}

// loadCatalog restores the session and fetches books and genres. A partial
// failure is tolerated as long as there are books to show.
func loadCatalog(ctx context.Context) error {
	restore(ctx)
	if err := app.Refresh(ctx); err != nil {
		if len(app.Catalog().Books()) == 0 {
			return fmt.Errorf("failed to load catalog: %v", err)
		}
		log.Warn("catalog_refresh_incomplete", "error", err)
	}
	return nil
}

func parseBookID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book ID %q", arg)
	}
	return id, nil
}

// bookTitle returns the catalog title for id, or a placeholder.
func bookTitle(id int64) string {
	if b, ok := app.Catalog().Book(id); ok {
		return b.Title
	}
	return fmt.Sprintf("book %d", id)
}
