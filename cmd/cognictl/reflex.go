package main

import (
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"github.com/spf13/cobra"
)

func newReflexCmd(g *globalFlags) *cobra.Command {
	var subj domain.Subject

	cmd := &cobra.Command{
		Use:   "reflex",
		Short: "Evaluate reflex triggers using the agent's kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := subj.Validate(); err != nil {
				return err
			}
			stores, err := g.openStores(cmd)
			if err != nil {
				return err
			}
			defer stores.Close()

			logger := g.logger()
			kernels := service.NewKernelService(stores.Kernels, logger)
			agents := service.NewAgentService(stores.Agents, kernels)
			kernel, err := agents.ResolveKernel(cmd.Context(), subj.TenantID, subj.AgentID)
			if err != nil {
				return err
			}

			engine := service.NewReflexEngine(stores.Goals, stores.Graphs, stores.Metrics, logger)
			triggers, err := engine.Evaluate(cmd.Context(), kernel, subj)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), triggers)
		},
	}
	cmd.Flags().StringVar(&subj.TenantID, "tenant", "", "Tenant id")
	cmd.Flags().StringVar(&subj.UserID, "user", "", "User id")
	cmd.Flags().StringVar(&subj.AgentID, "agent", "", "Agent id")
	return cmd
}
