package cli

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"party-trivia/internal/app"
	"party-trivia/internal/config"
	"party-trivia/internal/csvio"
	"party-trivia/internal/domain"
)

// NewExportCmd prints a freshly generated content set as CSV.
func NewExportCmd(configPath *string) *cobra.Command {
	var rounds, perRound int
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate a content set and print it as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), *configPath, rounds, perRound)
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 3, "number of rounds")
	cmd.Flags().IntVar(&perRound, "per-round", 5, "questions per round")
	return cmd
}

func runExport(ctx context.Context, configPath string, rounds, perRound int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	provider, err := questionProvider(cfg, b)
	if err != nil {
		return err
	}
	dice := rand.New(rand.NewSource(time.Now().UnixNano()))
	plan, err := app.BuildRounds(ctx, provider, app.DrawCategories(domain.Categories, rounds, dice), perRound)
	if err != nil {
		return err
	}
	if err := csvio.Export(os.Stdout, csvio.ContentFromRounds(plan)); err != nil {
		return err
	}
	_, err = os.Stdout.WriteString("\n")
	return err
}
