// Package main is a command line tool for managing saved characters.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/textland/internal/app"
	"github.com/jwebster45206/textland/internal/config"
	"github.com/jwebster45206/textland/pkg/content"
	"github.com/jwebster45206/textland/pkg/storage"
)

var (
	cfg     *config.Config
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "characters",
	Short: "Manage saved Textland characters",
	Long:  `List, inspect and delete characters in the configured save store (SAVE_BACKEND, SAVE_DIR, REDIS_URL).`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("backend") {
			cfg.SaveBackend, _ = cmd.Flags().GetString("backend")
		}
		if cmd.Flags().Changed("save-dir") {
			cfg.SaveDir, _ = cmd.Flags().GetString("save-dir")
		}
		if cmd.Flags().Changed("redis-url") {
			cfg.RedisURL, _ = cmd.Flags().GetString("redis-url")
		}
		return nil
	},
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved characters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			return listCharacters(ctx, cmd.OutOrStdout(), store, loadCatalog())
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a character and its event log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			return deleteCharacter(ctx, cmd.OutOrStdout(), store, args[0])
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events <name>",
	Short: "Print a character's event log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			return printEvents(ctx, cmd.OutOrStdout(), store, args[0])
		})
	},
}

func init() {
	rootCmd.PersistentFlags().String("backend", "", "Save backend: file or redis (default from SAVE_BACKEND)")
	rootCmd.PersistentFlags().String("save-dir", "", "Save directory for the file backend (default from SAVE_DIR)")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis address for the redis backend (default from REDIS_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for store operations")

	rootCmd.AddCommand(listCmd, deleteCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func withStore(fn func(ctx context.Context, store storage.Store) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg, quietLogger())
	if err != nil {
		return fmt.Errorf("failed to open save store: %w", err)
	}
	defer store.Close()
	return fn(ctx, store)
}

// loadCatalog loads content for display names. Listing still works without
// it; names fall back to "N/A".
func loadCatalog() *content.World {
	w, err := app.LoadWorld(cfg, quietLogger())
	if err != nil {
		return content.NewWorld()
	}
	return w
}

func listCharacters(ctx context.Context, out io.Writer, store storage.SaveStore, w *content.World) error {
	summaries, err := store.ListCharacters(ctx)
	if err != nil {
		return fmt.Errorf("failed to list characters: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No saved characters.")
		return nil
	}

	fmt.Fprintf(out, "Found %d characters:\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(out, "  %s (Species: %s, Class: %s, Level: %d)\n",
			s.Name, w.SpeciesName(s.Species), w.ClassName(s.Class), s.Level)
	}
	return nil
}

func deleteCharacter(ctx context.Context, out io.Writer, store storage.SaveStore, name string) error {
	if err := store.DeleteCharacter(ctx, name); err != nil {
		return fmt.Errorf("failed to delete %q: %w", name, err)
	}
	fmt.Fprintf(out, "Deleted %s.\n", name)
	return nil
}

func printEvents(ctx context.Context, out io.Writer, store storage.EventLog, name string) error {
	events, err := store.Events(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to read events for %q: %w", name, err)
	}
	if len(events) == 0 {
		fmt.Fprintf(out, "No events for %s.\n", name)
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(out, "%s  %-24s %v\n", ev.Timestamp.Format(time.RFC3339), ev.Type, ev.Data)
	}
	return nil
}
