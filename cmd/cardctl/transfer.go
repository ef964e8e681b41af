package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrewpaige1/memocards-api/cards"
)

func newImportCmd(a *app) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge or replace the collection with cards from a JSON export",
		Long: `The file is either a bare array of cards or an object {"cards": [...],
"strategy": "merge"|"replace"}. A strategy named in the file wins over --strategy.
The whole file is rejected when any record is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			batch, err := cards.ParseImport(data, a.cfg.MaxImportCards)
			if err != nil {
				return fmt.Errorf("import rejected: %w", err)
			}
			if !batch.StrategySet && strategy != "" {
				if batch.Strategy, err = cards.ParseStrategy(strategy); err != nil {
					return err
				}
			}

			result, err := a.store.Import(cmd.Context(), 0, batch)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			a.log.Debug("import done",
				zap.String("strategy", string(result.Strategy)),
				zap.String("policy", string(a.store.Policy())),
				zap.Int("cards", len(result.Cards)))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported (%s): %d created, %d updated, %d skipped, %d unchanged\n",
				result.Strategy, result.Created, result.Updated, result.Skipped, result.Unchanged)
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "merge or replace, when the file does not say")
	cmd.Flags().StringVar(&a.policy, "policy", "", "Conflict policy on merge: overwrite or last-write-wins")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		outDir string
		bare   bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection to a dated JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := a.store.List(cmd.Context(), 0)
			if err != nil {
				return err
			}
			now := time.Now()
			data, err := cards.Export(collection.Cards(), now, bare)
			if err != nil {
				return err
			}
			if outDir == "-" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}
			path := filepath.Join(outDir, cards.ExportFilename(cards.DefaultExportPrefix, now))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cards to %s\n", collection.Len(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for the export file, - for stdout")
	cmd.Flags().BoolVar(&bare, "bare", false, "Write a bare array instead of {exportedAt, cards}")
	return cmd
}
