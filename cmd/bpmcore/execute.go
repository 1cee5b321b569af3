package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bpmcore"
	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/engine"
)

type executeFlags struct {
	contract      string
	inputs        string
	operations    string
	containerID   int64
	containerType string
	definitionID  int64
}

func newExecuteCmd() *cobra.Command {
	var f executeFlags
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Validate inputs and execute a task's operations",
		Long: `Runs a task completion against one container:
  1. Validate: when --contract is given, the inputs are checked first
  2. Map: the operations file's mappings turn inputs into assignments
  3. Execute: mapped and declared operations run as one batch

The operations file is YAML:

  mappings:
    - input: age
      target: {category: DATA, name: customerAge}
  operations:
    - leftOperand: {category: DATA, name: approved}
      kind: ASSIGNMENT
      rightOperand: {kind: SCRIPT, content: "customerAge >= 18"}

The final working set and the commit action per target are printed as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.contract, "contract", "", "Contract definition file")
	cmd.Flags().StringVar(&f.inputs, "inputs", "", "Submitted inputs file")
	cmd.Flags().StringVar(&f.operations, "operations", "", "Operations file (required)")
	cmd.Flags().Int64Var(&f.containerID, "container-id", 1, "Container instance id")
	cmd.Flags().StringVar(&f.containerType, "container-type", string(core.ContainerProcessInstance), "PROCESS_INSTANCE or ACTIVITY_INSTANCE")
	cmd.Flags().Int64Var(&f.definitionID, "definition-id", 0, "Process definition id")
	_ = cmd.MarkFlagRequired("operations")
	return cmd
}

// executeOutput is the printed form of an engine.Result.
type executeOutput struct {
	BatchID   string            `json:"batchId"`
	Values    map[string]any    `json:"values"`
	Actions   map[string]string `json:"actions"`
	Writes    int               `json:"writes"`
	Persisted int               `json:"persisted"`
}

func runExecute(cmd *cobra.Command, f executeFlags) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	container, err := parseContainer(f.containerID, f.containerType)
	if err != nil {
		return err
	}
	batch, err := loadBatch(f.operations)
	if err != nil {
		return err
	}
	inputs, err := loadInputs(f.inputs)
	if err != nil {
		return err
	}

	rt, cleanup, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var res *engine.Result
	if f.contract != "" {
		c, err := loadContract(f.contract)
		if err != nil {
			return err
		}
		res, err = rt.Submit(ctx, &bpmcore.Submission{
			Container:    container,
			DefinitionID: f.definitionID,
			Contract:     c,
			Inputs:       inputs,
			Mappings:     batch.Mappings,
			Operations:   batch.Operations,
			Variables:    batch.Variables,
		})
		if err != nil {
			return reportRejection(cmd, err)
		}
	} else {
		if len(batch.Mappings) > 0 {
			return fmt.Errorf("mappings need a --contract")
		}
		res, err = rt.Execute(ctx, container, f.definitionID, batch.Variables, batch.Operations)
		if err != nil {
			return err
		}
	}

	return printResult(cmd, res)
}

func printResult(cmd *cobra.Command, res *engine.Result) error {
	out := executeOutput{
		BatchID:   res.BatchID,
		Values:    res.Values,
		Actions:   make(map[string]string, len(res.Actions)),
		Writes:    res.Writes,
		Persisted: res.Persisted,
	}
	for lo, a := range res.Actions {
		out.Actions[lo.String()] = a.String()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseContainer(id int64, typ string) (core.Container, error) {
	t := core.ContainerType(strings.ToUpper(typ))
	switch t {
	case core.ContainerProcessInstance, core.ContainerActivityInstance:
		return core.Container{ID: id, Type: t}, nil
	default:
		return core.Container{}, fmt.Errorf("unknown container type %q", typ)
	}
}
