package main

import (
	"fmt"
	"runtime"

	"github.com/DTSP-AI/numen-ai-sub001/internal/buildconfig"
	"github.com/spf13/cobra"
)

func newVersionCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("output") {
				return g.print(cmd.OutOrStdout(), buildconfig.VersionInfo())
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "cognictl version %s\n", buildconfig.Version())
			fmt.Fprintf(w, "  Commit: %s\n", buildconfig.Commit())
			fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "  Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
