package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/avhagen/pollster/config"
	"github.com/avhagen/pollster/polly"
	"github.com/avhagen/pollster/session"
)

var (
	cfgFile   string
	serverURL string

	cfg      *config.Config
	logger   zerolog.Logger
	client   *polly.Client
	sessions session.Store

	appVersion = "dev"

	// Command flags
	filterExpr string
	preset     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pollster",
	Short: "A command line client for Polly poll servers",
	Long: `pollster is a CLI client for Polly poll servers. It registers
accounts, keeps login sessions per server, and lets you browse, create,
and vote on polls with expression based filtering.`,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: teardownApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion records the build information reported by the version flag
// and checked by the upgrade command.
func SetVersion(version, buildTime string) {
	appVersion = version
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("pollster {{.Version}} (built %s)\n", buildTime))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "poll server URL (overrides config)")

	rootCmd.AddCommand(testCmd)
}

// initializeApp initializes the configuration, session store, and client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Override server URL from command line if specified
	if cmd.Flags().Changed("server") {
		cfg.Server.URL = serverURL
	}

	// Open the session store
	sessions, err = session.NewStore(cfg.Session.Path)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Session.Path).Msg("Failed to open session store, sessions will not persist")
		sessions, _ = session.NewStore("")
	}

	opts := []polly.Option{
		polly.WithTimeout(cfg.Server.Timeout()),
		polly.WithPageSize(cfg.Server.PageSize),
	}

	// Restore a saved login for this server
	if rec, err := sessions.Load(cfg.Server.URL); err != nil {
		logger.Warn().Err(err).Msg("Failed to read saved session")
	} else if rec != nil && rec.Token != "" {
		opts = append(opts, polly.WithToken(rec.Token))
		logger.Debug().Str("username", rec.Username).Msg("Restored saved session")
	}

	client, err = polly.NewClient(cfg.Server.URL, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// teardownApp releases resources held since initializeApp
func teardownApp(cmd *cobra.Command, args []string) error {
	if sessions != nil {
		return sessions.Close()
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, color only when stderr is a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// currentSession returns the stored login for the active server, nil when absent.
func currentSession() *session.Record {
	rec, err := sessions.Load(cfg.Server.URL)
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to read session store")
		return nil
	}
	return rec
}

// getFilterExpression determines the filter expression to use
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset > config default
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expr, ok := cfg.Filter.Presets[preset]; ok {
			return expr, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return cfg.Filter.Default, nil
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to the poll server",
	Long:  `Test the connection to the configured poll server and display basic information.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to %s...\n", client.BaseURL())

	ctx := context.Background()
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Println("✓ Connection successful!")

	polls, err := client.GetAllPolls(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch polls: %w", err)
	}

	owners := make(map[int64]struct{})
	var optionCount int
	for _, poll := range polls {
		owners[poll.OwnerID] = struct{}{}
		optionCount += len(poll.Options)
	}

	fmt.Printf("\nServer statistics:\n")
	fmt.Printf("- Total polls: %d\n", len(polls))
	fmt.Printf("- Total options: %d\n", optionCount)
	fmt.Printf("- Distinct owners: %d\n", len(owners))

	if rec := currentSession(); rec != nil {
		fmt.Printf("\nLogged in as %s\n", rec.Username)
	} else {
		fmt.Println("\nNot logged in")
	}

	return nil
}
