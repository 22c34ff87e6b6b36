// Command purge deletes every complaint from the configured store.
//
// It is a manual maintenance tool: nothing in the HTTP server calls it, and
// it refuses to run without --yes.
//
//	campuspulse-purge --collection complaints --batch-size 10 --yes
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/campuspulse-backend/internal/config"
	"github.com/tbourn/campuspulse-backend/internal/domain"
	"github.com/tbourn/campuspulse-backend/internal/repo"
	"github.com/tbourn/campuspulse-backend/internal/sysutil"
)

var errNotConfirmed = errors.New("refusing to purge without --yes")

// purgeDeps are the seams the command needs; tests replace them.
type purgeDeps struct {
	load func() (config.Config, error)
	open func(ctx context.Context, cfg config.StoreConfig) (repo.Store, error)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(purgeDeps{load: config.Load, open: repo.Open})
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(deps purgeDeps) *cobra.Command {
	var (
		collection string
		batchSize  int
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "campuspulse-purge",
		Short: "Delete every complaint from a collection in batches",
		Long: "Deletes all records from the configured complaint store (STORE_DRIVER) " +
			"in batches of --batch-size until the collection is empty.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errNotConfirmed
			}
			if batchSize < 1 {
				return fmt.Errorf("--batch-size must be >= 1 (got %d)", batchSize)
			}

			cfg, err := deps.load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, cmd.ErrOrStderr())
			cfg.Store.Collection = collection

			ctx := cmd.Context()
			store, err := deps.open(ctx, cfg.Store)
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
			}
			defer func() {
				if err := store.Close(context.Background()); err != nil {
					log.Warn().Err(err).Msg("store close")
				}
			}()

			return purge(ctx, store, collection, batchSize, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "complaints", "collection (or table) to clear")
	cmd.Flags().IntVar(&batchSize, "batch-size", 10, "records deleted per batch")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that every record should be deleted")
	return cmd
}

// purge clears the store and reports progress on out.
func purge(ctx context.Context, p repo.Purger, collection string, batchSize int, out io.Writer) error {
	fmt.Fprintf(out, "Clearing '%s' collection...\n", collection)

	deleted := 0
	batches, err := p.Purge(ctx, batchSize, func(c domain.Complaint) {
		deleted++
		id := c.ID
		c.ID = ""
		rec, _ := json.Marshal(c)
		fmt.Fprintf(out, "Deleting doc %s => %s\n", id, rec)
	})
	if err != nil {
		return fmt.Errorf("purge %s after %d batches: %w", collection, batches, err)
	}

	log.Info().Str("collection", collection).Int("deleted", deleted).Int("batches", batches).Msg("purge finished")
	fmt.Fprintf(out, "Deleted %d docs in %d batches.\nDone.\n", deleted, batches)
	return nil
}
