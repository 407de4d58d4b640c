package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"party-trivia/internal/config"
	"party-trivia/internal/csvio"
	pgbank "party-trivia/internal/infra/postgres"
	redisinfra "party-trivia/internal/infra/redis"
)

// NewImportCmd loads a content sheet into the Postgres question bank.
func NewImportCmd(configPath *string) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV content sheet into the question bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, args[0], replace)
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "drop stored questions of the sheet's categories before importing")
	return cmd
}

func runImport(ctx context.Context, configPath, path string, replace bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	content, err := csvio.Import(f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	writer := pgbank.NewBankWriter(db)
	if replace {
		for _, c := range content {
			dropped, err := writer.Delete(ctx, c.Category.Name)
			if err != nil {
				return err
			}
			log.Printf("dropped %d stored questions of %q", dropped, c.Category.Name)
		}
	}
	saved, err := writer.Save(ctx, content)
	if err != nil {
		return err
	}

	if client := newRedisClient(cfg); client != nil {
		defer client.Close()
		bank := redisinfra.NewBankRepository(client, nil, 0)
		for _, c := range content {
			if err := bank.Invalidate(ctx, c.Category.Name); err != nil {
				log.Printf("invalidate cached bank %q: %v", c.Category.Name, err)
			}
		}
	}

	log.Printf("imported %d questions in %d categories from %s", saved, len(content), path)
	return nil
}
