package main

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/catalog-view/internal/storage/postgres"
)

func newSeedCmd(lg *zap.Logger) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "seed <feed>",
		Short: "Replace the database catalog with the contents of a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("database URL is required: set --database-url or DATABASE_URL")
			}
			ctx := cmd.Context()

			products, err := loadFeed(ctx, args[0])
			if err != nil {
				return err
			}

			lg.Info("Connecting to database")
			pool, err := postgres.NewPool(ctx, databaseURL)
			if err != nil {
				return errors.Wrap(err, "connect to database")
			}
			defer pool.Close()

			if err := postgres.RunMigrations(ctx, pool); err != nil {
				return err
			}
			if err := postgres.NewProductStore(pool).Replace(ctx, products); err != nil {
				return errors.Wrap(err, "replace products")
			}

			lg.Info("Seed completed", zap.Int("products", len(products)))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", len(products))
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	return cmd
}
