package main

import (
	"fmt"

	"github.com/DTSP-AI/numen-ai-sub001/internal/config"
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"github.com/spf13/cobra"
)

func newKernelCmd(g *globalFlags) *cobra.Command {
	kernelCmd := &cobra.Command{
		Use:   "kernel",
		Short: "Manage kernel config versions",
	}

	validateCmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check kernel YAML files without touching storage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				k, err := config.LoadKernelFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %v\n", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%s)\n", path, k.Version)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d kernel files are invalid", failed, len(args))
			}
			return nil
		},
	}

	var dir string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Store the built-in kernel and every file in --dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = config.KernelConfigDir()
			}
			extra, err := config.LoadKernelDir(dir)
			if err != nil {
				return err
			}

			stores, err := g.openStores(cmd)
			if err != nil {
				return err
			}
			defer stores.Close()

			svc := service.NewKernelService(stores.Kernels, g.logger())
			if err := svc.Seed(cmd.Context(), extra...); err != nil {
				return err
			}
			kernels, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), versions(kernels))
		},
	}
	seedCmd.Flags().StringVar(&dir, "dir", "", "Directory of kernel YAML files; default from KERNEL_CONFIG_DIR")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored kernel versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := g.openStores(cmd)
			if err != nil {
				return err
			}
			defer stores.Close()

			kernels, err := service.NewKernelService(stores.Kernels, g.logger()).List(cmd.Context())
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), kernels)
		},
	}

	kernelCmd.AddCommand(validateCmd, seedCmd, listCmd)
	return kernelCmd
}

func versions(kernels []domain.CognitiveKernelConfig) []string {
	out := make([]string, len(kernels))
	for i, k := range kernels {
		out[i] = k.Version
	}
	return out
}
