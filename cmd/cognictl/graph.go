package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newGraphCmd(g *globalFlags) *cobra.Command {
	var (
		normalization string
		coreFraction  float64
	)

	options := func() (service.GraphOptions, error) {
		opts := service.GraphOptions{
			Normalization:      domain.ConflictNormalization(normalization),
			CoreBeliefFraction: coreFraction,
		}
		switch opts.Normalization {
		case domain.NormalizeConflictEdges, domain.NormalizeAllEdges:
		default:
			return opts, domain.Invalid("--normalization", "must be conflict_edges or all_edges, got %q", normalization)
		}
		if coreFraction <= 0 || coreFraction > 1 {
			return opts, domain.Invalid("--core-fraction", "must be in (0,1], got %v", coreFraction)
		}
		return opts, nil
	}

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Score belief maps offline",
	}
	graphCmd.PersistentFlags().StringVar(&normalization, "normalization", string(domain.NormalizeConflictEdges),
		"Conflict score denominator (conflict_edges, all_edges)")
	graphCmd.PersistentFlags().Float64Var(&coreFraction, "core-fraction", domain.DefaultCoreBeliefFraction,
		"Fraction of nodes reported as core beliefs")

	scoreCmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Compute centrality, conflict score, tension nodes and core beliefs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options()
			if err != nil {
				return err
			}
			graph, err := scoreFile(args[0], opts)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), graph)
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare PREVIOUS CURRENT",
		Short: "Report the belief shift between two maps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options()
			if err != nil {
				return err
			}
			prev, err := scoreFile(args[0], opts)
			if err != nil {
				return err
			}
			curr, err := scoreFile(args[1], opts)
			if err != nil {
				return err
			}
			return g.print(cmd.OutOrStdout(), service.CompareGraphs(prev, curr))
		},
	}

	graphCmd.AddCommand(scoreCmd, compareCmd)
	return graphCmd
}

// readGraphInput decodes a .json file with encoding/json and anything else
// as YAML.
func readGraphInput(path string) (service.GraphInput, error) {
	var in service.GraphInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &in)
	} else {
		err = yaml.Unmarshal(data, &in)
	}
	if err != nil {
		return in, fmt.Errorf("parse %s: %w", path, err)
	}
	return in, nil
}

func scoreFile(path string, opts service.GraphOptions) (domain.BeliefGraph, error) {
	in, err := readGraphInput(path)
	if err != nil {
		return domain.BeliefGraph{}, err
	}
	graph, err := service.BuildBeliefGraph(in.Nodes, in.Edges, opts)
	if err != nil {
		return domain.BeliefGraph{}, fmt.Errorf("%s: %w", path, err)
	}
	graph.SessionRef = in.SessionRef
	return graph, nil
}
