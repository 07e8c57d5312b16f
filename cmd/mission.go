// File: cmd/mission.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/internal/collaborators/filefacts"
	"github.com/xkilldash9x/cartograph/internal/config"
	"github.com/xkilldash9x/cartograph/internal/heuristics"
	"github.com/xkilldash9x/cartograph/internal/observability"
	"github.com/xkilldash9x/cartograph/internal/orchestrator"
	"github.com/xkilldash9x/cartograph/internal/planner"
)

// newMissionCmd creates and configures the `mission` command.
func newMissionCmd() *cobra.Command {
	missionCmd := &cobra.Command{
		Use:   "mission [target-domain]",
		Short: "Runs the full recon mission pipeline against a target domain",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so the command line overrides config file and env.
			if err := viper.BindPFlag("mission.mode", cmd.Flags().Lookup("mode")); err != nil {
				return err
			}
			if err := viper.BindPFlag("mission.facts_dir", cmd.Flags().Lookup("facts-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("mission.continue_on_low_surface", cmd.Flags().Lookup("continue-on-low-surface")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			viper.Set("mission.target_domain", args[0])
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			policy, err := heuristics.LoadRiskPolicy(cfg.Policy.File)
			if err != nil {
				return err
			}

			collab := orchestrator.Collaborators{}
			if cfg.Mission.FactsDir != "" {
				provider, err := filefacts.New(cfg.Mission.FactsDir, logger)
				if err != nil {
					return err
				}
				collab = orchestrator.Collaborators{
					OSINT:      provider,
					Subdomains: provider,
					Infra:      provider,
					Endpoints:  provider,
					JS:         provider,
					Scanner:    provider,
				}
			}

			var memory *planner.MemoryContext
			if cfg.Mission.MemoryBoost != 0 {
				memory = &planner.MemoryContext{
					KnownHighValue: loadKnownHighValue(cfg.Mission.KnowledgeDir, logger),
					Boost:          cfg.Mission.MemoryBoost,
				}
			}

			orch, err := orchestrator.New(cfg, collab, policy, memory, logger)
			if err != nil {
				return err
			}

			metrics, err := orch.Run(ctx)
			if err != nil {
				return err
			}

			logger.Info("Mission artifacts written", zap.String("dir", orch.OutputDir()))
			if metrics.Aborted {
				fmt.Fprintf(cmd.OutOrStdout(), "Mission aborted at gate check; minimal report written to %s\n", orch.OutputDir())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mission %s complete: %d subdomains, %d services, %d endpoints. Report written to %s\n",
				metrics.RunID, metrics.Subdomains, metrics.Services, metrics.Endpoints, orch.OutputDir())
			return nil
		},
	}

	missionCmd.Flags().String("mode", "", "mission mode: stealth or aggressive")
	missionCmd.Flags().String("facts-dir", "", "directory of fact documents produced by external tooling")
	missionCmd.Flags().Bool("continue-on-low-surface", false, "proceed past the gate check even on a small surface")
	return missionCmd
}
