package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const careerMap = `
session_ref: intake-1
nodes:
  - {id: A, label: Promotion, type: goal, emotional_valence: 0.5, strength: 0.9}
  - {id: B, label: Not good enough, type: limiting_belief, emotional_valence: -0.5, strength: 0.7}
edges:
  - {source_id: A, target_id: B, relationship: conflicts, weight: 0.9}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NUMEN_ENV", filepath.Join(t.TempDir(), "none.env"))

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGraphScore(t *testing.T) {
	path := writeFile(t, t.TempDir(), "career.yaml", careerMap)

	out, err := run(t, "graph", "score", path)
	require.NoError(t, err)

	var g domain.BeliefGraph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.InDelta(t, 0.45, g.ConflictScore, 1e-9)
	assert.Equal(t, []string{"A", "B"}, g.CoreBeliefs)
	assert.Empty(t, g.TensionNodes)
	assert.Equal(t, "intake-1", g.SessionRef)
	assert.Equal(t, 1.0, g.Nodes[0].Centrality)
}

func TestGraphScore_YAMLOutputKeepsCentrality(t *testing.T) {
	path := writeFile(t, t.TempDir(), "career.yaml", careerMap)

	out, err := run(t, "graph", "score", "-o", "yaml", path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "conflict_score")
	nodes := doc["nodes"].([]any)
	assert.Contains(t, nodes[0].(map[string]any), "centrality")
}

func TestGraphScore_Rejects(t *testing.T) {
	dir := t.TempDir()
	dangling := writeFile(t, dir, "bad.json",
		`{"nodes":[{"id":"A","type":"goal","emotional_valence":0,"strength":0.5}],"edges":[{"source_id":"A","target_id":"Z","relationship":"blocks","weight":0.5}]}`)

	_, err := run(t, "graph", "score", dangling)
	assert.ErrorIs(t, err, domain.ErrReferential)

	_, err = run(t, "graph", "score", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestGraphFlagsValidated(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "career.yaml", careerMap)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown normalization", []string{"graph", "score", "--normalization", "foo", path}},
		{"negative core fraction", []string{"graph", "score", "--core-fraction=-3", path}},
		{"core fraction above one", []string{"graph", "score", "--core-fraction", "7", path}},
		{"zero core fraction", []string{"graph", "score", "--core-fraction", "0", path}},
		{"compare checks flags", []string{"graph", "compare", "--normalization", "foo", path, path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	out, err := run(t, "graph", "score", "--normalization", "all_edges", "--core-fraction", "1", path)
	require.NoError(t, err)
	var g domain.BeliefGraph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.InDelta(t, 0.45, g.ConflictScore, 1e-9)
}

func TestGraphCompare(t *testing.T) {
	dir := t.TempDir()
	prev := writeFile(t, dir, "prev.yaml", careerMap)
	curr := writeFile(t, dir, "curr.yaml", `
nodes:
  - {id: A, label: Promotion, type: goal, emotional_valence: 0.5, strength: 0.9}
  - {id: B, label: Not good enough, type: limiting_belief, emotional_valence: 0.1, strength: 0.7}
edges:
  - {source_id: A, target_id: B, relationship: conflicts, weight: 0.9}
`)

	out, err := run(t, "graph", "compare", prev, curr)
	require.NoError(t, err)

	var shift domain.BeliefShift
	require.NoError(t, json.Unmarshal([]byte(out), &shift))
	assert.InDelta(t, 0.15, shift.Magnitude, 1e-9)
	assert.Less(t, shift.ConflictDelta, 0.0)
	assert.Empty(t, shift.AddedNodes)
}

func TestKernelValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "version: v2.0\nreflex_triggers:\n  enabled: true\n  emotion_conflict_threshold: 0.6\n  repeated_failure_threshold: 3\n  belief_conflict_threshold: 0.7\n")
	bad := writeFile(t, dir, "bad.yaml", "version: v3.0\nreflex_triggers:\n  repeated_failure_threshold: 0\n")

	out, err := run(t, "kernel", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "v2.0")

	_, err = run(t, "kernel", "validate", good, bad)
	assert.ErrorContains(t, err, "1 of 2")
}

func TestKernelSeedListAndReflex(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")
	kernelDir := filepath.Join(dir, "kernels")
	require.NoError(t, os.Mkdir(kernelDir, 0o755))
	writeFile(t, kernelDir, "strict.yaml", "version: strict\nreflex_triggers:\n  enabled: true\n  emotion_conflict_threshold: 0.5\n  repeated_failure_threshold: 1\n  belief_conflict_threshold: 0.4\n")

	db := []string{"--driver", "sqlite", "--sqlite-path", dbPath}

	out, err := run(t, append([]string{"kernel", "seed", "--dir", kernelDir}, db...)...)
	require.NoError(t, err)
	var seeded []string
	require.NoError(t, json.Unmarshal([]byte(out), &seeded))
	assert.ElementsMatch(t, []string{"strict", domain.DefaultKernelVersion}, seeded)

	out, err = run(t, append([]string{"kernel", "list"}, db...)...)
	require.NoError(t, err)
	var kernels []domain.CognitiveKernelConfig
	require.NoError(t, json.Unmarshal([]byte(out), &kernels))
	assert.Len(t, kernels, 2)

	// Register an agent on the strict kernel and give it a failing goal.
	ctx := context.Background()
	sqlDB, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	stores := sqlite.NewStores(sqlDB)
	require.NoError(t, stores.Agents.Create(ctx, &domain.Agent{TenantID: "t1", ExternalID: "coach", KernelVersion: "strict"}))
	subj := domain.Subject{TenantID: "t1", UserID: "u1", AgentID: "coach"}
	g := domain.NewGoalAssessment(subj, domain.GoalInput{GoalText: "Run a 10k", AttemptCount: 2, SuccessCount: 1})
	require.NoError(t, stores.Goals.Create(ctx, &g))
	stores.Close()

	out, err = run(t, append([]string{"reflex", "--tenant", "t1", "--user", "u1", "--agent", "coach"}, db...)...)
	require.NoError(t, err)
	var triggers []domain.ReflexTrigger
	require.NoError(t, json.Unmarshal([]byte(out), &triggers))
	require.Len(t, triggers, 1)
	assert.Equal(t, domain.TriggerRepeatedFailure, triggers[0].Type)
	assert.Equal(t, "Run a 10k", triggers[0].ContextRefs.GoalRef)

	_, err = run(t, append([]string{"reflex", "--tenant", "t1", "--user", "u1", "--agent", "ghost"}, db...)...)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = run(t, "reflex", "--tenant", "t1")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cognictl version dev")

	out, err = run(t, "version", "-o", "json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["version"])
}
