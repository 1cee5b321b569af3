package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/operation"
)

// batchFile is the on-disk form of a task's operations.
type batchFile struct {
	Mappings   []operation.InputMapping `yaml:"mappings"`
	Operations []*core.Operation        `yaml:"operations"`
	Variables  map[string]any           `yaml:"variables"`
}

// decodeFile reads a YAML (or JSON) document into out.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func loadContract(path string) (*core.ContractDefinition, error) {
	var c core.ContractDefinition
	if err := decodeFile(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadInputs(path string) (map[string]any, error) {
	inputs := map[string]any{}
	if path == "" {
		return inputs, nil
	}
	if err := decodeFile(path, &inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

func loadBatch(path string) (*batchFile, error) {
	var b batchFile
	if path == "" {
		return &b, nil
	}
	if err := decodeFile(path, &b); err != nil {
		return nil, err
	}
	for i, op := range b.Operations {
		if op == nil {
			return nil, fmt.Errorf("%s: operation %d is empty", path, i)
		}
	}
	return &b, nil
}
