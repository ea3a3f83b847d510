package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/DTSP-AI/numen-ai-sub001/internal/config"
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store/backend"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type globalFlags struct {
	output      string
	verbose     bool
	driver      string
	databaseURL string
	sqlitePath  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "cognictl",
		Short: "Cognitive kernel tooling",
		Long: `cognictl works with the cognitive assessment layer.

Commands:
  graph    Score or compare belief maps from YAML/JSON files
  kernel   Validate, seed and list kernel config versions
  reflex   Evaluate reflex triggers for one user and agent
  version  Show version information`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load()
		},
	}

	root.PersistentFlags().StringVarP(&g.output, "output", "o", "json", "Output format (json, yaml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log to stderr")
	root.PersistentFlags().StringVar(&g.driver, "driver", "", "Storage driver (postgres, sqlite); default from STORAGE_DRIVER")
	root.PersistentFlags().StringVar(&g.databaseURL, "database-url", "", "Postgres URL; default from DATABASE_URL")
	root.PersistentFlags().StringVar(&g.sqlitePath, "sqlite-path", "", "SQLite file; default from SQLITE_PATH")

	root.AddCommand(
		newGraphCmd(g),
		newKernelCmd(g),
		newReflexCmd(g),
		newVersionCmd(g),
	)
	return root
}

func (g *globalFlags) logger() *zap.Logger {
	if !g.verbose {
		return zap.NewNop()
	}
	logger, err := config.NewLogger(config.LogLevel())
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (g *globalFlags) openStores(cmd *cobra.Command) (domain.Stores, error) {
	return backend.Open(cmd.Context(), backend.Options{
		Driver:      g.driver,
		DatabaseURL: g.databaseURL,
		SQLitePath:  g.sqlitePath,
	}, g.logger())
}

func (g *globalFlags) print(w io.Writer, v any) error {
	switch g.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Go through JSON so field names match the API payloads.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (valid: json, yaml)", g.output)
	}
}
