package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schaermu/spackup/internal/config"
	"github.com/schaermu/spackup/internal/git"
	"github.com/schaermu/spackup/internal/tty"
	"github.com/schaermu/spackup/internal/update"
	"github.com/spf13/cobra"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	prefix    string
	logLevel  string
	logFormat string

	// Update command flags
	branch string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		tty.Stdout().Error(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "spackup",
	Short: "Update a package manager checkout and report changed packages",
	Long: `spackup keeps the git checkout of a package manager installation up to date.

It pulls the latest upstream commits into the installation prefix and reports
which package definitions were added, updated, or deleted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the installation to the latest upstream commit",
	Long: `Update pulls the latest commits into the installation prefix using
"git pull --rebase" and lists the packages changed by the update.

Without --branch, it warns when the current branch is not the local branch
tracking the upstream development branch.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

var changesCmd = &cobra.Command{
	Use:   "changes [from [to]]",
	Short: "List packages changed between two revisions",
	Long: `Changes lists the packages added, updated, or deleted between two
revisions of the installation checkout without modifying it.

The revisions default to HEAD~1 and HEAD.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runChanges,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("spackup %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/spackup/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "", "installation prefix (default is derived from the executable location)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Update command flags
	updateCmd.Flags().StringVarP(&branch, "branch", "b", "", "name of the branch to update the repository to")

	// Add commands
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(changesCmd)
	rootCmd.AddCommand(versionCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	engine, err := newEngine(logger)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx, update.Options{Branch: branch})
	if err != nil {
		logger.Error("update failed", "error", err)
		return err
	}

	logger.Info("update completed",
		"branch", result.Branch,
		"old", result.OldRevision,
		"new", result.NewRevision)
	return nil
}

func runChanges(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	from, to := "HEAD~1", "HEAD"
	if len(args) > 0 {
		from = args[0]
	}
	if len(args) > 1 {
		to = args[1]
	}

	engine, err := newEngine(logger)
	if err != nil {
		return err
	}

	if _, err := engine.Changes(ctx, from, to); err != nil {
		logger.Error("listing changes failed", "error", err)
		return err
	}
	return nil
}

// newEngine wires the configuration, git client, and printer into an update engine
func newEngine(logger *slog.Logger) (*update.Engine, error) {
	cfg, err := loadConfig(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	runner := git.NewShellRunner(cfg.Git.Binary, cfg.Git.Config, logger)
	repo := git.NewClient(runner, cfg.Paths.Prefix)

	engine := update.NewEngine(cfg, repo, tty.Stdout(), logger)
	engine.SetWidth(tty.Width(os.Stdout))
	return engine, nil
}

func setupLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	// Create handler based on format. Logs go to stderr so they never mix
	// with the change report on stdout.
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func loadConfig(logger *slog.Logger) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if cfgFile != "" {
		logger.Info("loading configuration", "path", cfgFile)
		cfg, err = config.Load(cfgFile)
	} else {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", herr)
		}
		configPath := filepath.Join(home, ".config", "spackup", "config.yaml")
		logger.Info("loading configuration", "path", configPath)
		cfg, err = config.LoadOrDefault(configPath)
	}
	if err != nil {
		return nil, err
	}

	if prefix != "" {
		abs, err := filepath.Abs(prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve prefix %s: %w", prefix, err)
		}
		cfg.Paths.Prefix = abs
	}
	if err := cfg.ResolvePrefix(); err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		"prefix", cfg.Paths.Prefix,
		"upstream", cfg.Upstream.URLSuffix,
		"upstream_branch", cfg.Upstream.Branch,
		"packages_root", cfg.Packages.Root)

	return cfg, nil
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
