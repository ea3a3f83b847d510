package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"gopkg.in/yaml.v3"
)

// ParseKernel decodes one YAML kernel document. Unknown keys are rejected;
// omitted optional fields take their defaults.
func ParseKernel(data []byte) (domain.CognitiveKernelConfig, error) {
	k := domain.KernelDocumentBase()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&k); err != nil {
		return domain.CognitiveKernelConfig{}, fmt.Errorf("decode kernel yaml: %w", err)
	}
	k.Normalize()
	if err := k.Validate(); err != nil {
		return domain.CognitiveKernelConfig{}, err
	}
	return k, nil
}

func LoadKernelFile(path string) (domain.CognitiveKernelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CognitiveKernelConfig{}, fmt.Errorf("read kernel file: %w", err)
	}
	k, err := ParseKernel(data)
	if err != nil {
		return domain.CognitiveKernelConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return k, nil
}

// LoadKernelDir loads every *.yaml and *.yml file in dir, in file-name order.
// Two files declaring the same version is an error. An empty dir loads nothing.
func LoadKernelDir(dir string) ([]domain.CognitiveKernelConfig, error) {
	if dir == "" {
		return nil, nil
	}
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	kernels := make([]domain.CognitiveKernelConfig, 0, len(paths))
	for _, p := range paths {
		k, err := LoadKernelFile(p)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[k.Version]; ok {
			return nil, fmt.Errorf("kernel version %q declared in both %s and %s", k.Version, prev, filepath.Base(p))
		}
		seen[k.Version] = filepath.Base(p)
		kernels = append(kernels, k)
	}
	return kernels, nil
}

// MarshalKernel renders k as YAML, the inverse of ParseKernel.
func MarshalKernel(k domain.CognitiveKernelConfig) ([]byte, error) {
	return yaml.Marshal(k)
}
