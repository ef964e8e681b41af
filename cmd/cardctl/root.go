package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrewpaige1/memocards-api/assist"
	"github.com/andrewpaige1/memocards-api/cards"
	"github.com/andrewpaige1/memocards-api/config"
	"github.com/andrewpaige1/memocards-api/logging"
	"github.com/andrewpaige1/memocards-api/store"
)

// app carries the state shared by every subcommand. It is filled in by the
// root command's PersistentPreRunE once flags are parsed.
type app struct {
	storePath  string
	configPath string
	policy     string
	verbose    bool

	cfg    config.Config
	log    *zap.Logger
	store  *store.LocalStore
	assist *assist.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "cardctl",
		Short: "Manage an offline flashcard collection",
		Long: `cardctl reads and writes a local card collection kept in one JSON file.
Cards can be searched, filtered by tag, edited, imported and exported in the
same format the API uses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.storePath, "store", "", "Path of the card file (default from LOCAL_STORE_PATH or "+store.DefaultLocalFile+")")
	flags.StringVar(&a.configPath, "config", "", "Configuration file (default "+config.DefaultConfigFile+")")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newListCmd(a),
		newTagsCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newImportCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Read(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.log, err = logging.New(level, true)
	if err != nil {
		return err
	}

	var policy cards.ConflictPolicy
	if a.policy != "" {
		if policy, err = cards.ParsePolicy(a.policy); err != nil {
			return err
		}
	}
	path := a.storePath
	if path == "" {
		path = cfg.LocalStorePath
	}
	a.store, err = store.OpenLocal(path, policy, a.log)
	if err != nil {
		return fmt.Errorf("failed to open card store: %w", err)
	}

	var remote assist.Remote
	if cfg.GeminiAPIKey != "" {
		gemini, err := assist.NewGeminiRemote(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			a.log.Warn("gemini disabled, formatting locally", zap.Error(err))
		} else {
			remote = gemini
		}
	}
	a.assist = assist.NewService(remote, cfg.AssistTimeout, a.log)
	return nil
}
