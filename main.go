package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"policy_workbench/config"
	"policy_workbench/generator"
	"policy_workbench/logging"
	"policy_workbench/policy"
	"policy_workbench/store"
)

// app carries what PersistentPreRunE loaded into every subcommand.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "workbench",
		Short: "Policy meeting workbench: generate, archive and export meeting materials",
		Long: `workbench turns a policy question into a structured meeting package
(summary, video plan, image prompts, slides, KPIs) with an LLM and keeps every
generation in a local SQLite archive.

Run "workbench serve" for the HTTP API, or use the commands below directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Log.Level = "debug"
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "path to config.yaml")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logs")

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newRecordsCmd(a),
		newExportCmd(a),
		newCatalogCmd(a),
	)
	return root
}

func (a *app) openStore() (*store.Store, error) {
	return store.Open(a.cfg.Database.Path, store.WithLogger(a.logger))
}

func (a *app) openPolicies(ctx context.Context, st *store.Store) (*policy.Repository, error) {
	return policy.Open(ctx, st.DB(), policy.WithLogger(a.logger))
}

// buildAgent validates the LLM settings and wires the provider into an Agent.
func (a *app) buildAgent(ctx context.Context) (*generator.Agent, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	llm, err := generator.NewLLM(ctx, a.cfg.LLMSettings())
	if err != nil {
		return nil, err
	}
	return generator.NewAgent(llm,
		generator.WithLogger(a.logger),
		generator.WithTimeout(a.cfg.GetLLMTimeout()),
	)
}
