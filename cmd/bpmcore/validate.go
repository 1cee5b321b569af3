package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bpmcore/contract"
)

// errRejected marks a submission that failed validation; the problems were
// already printed.
var errRejected = errors.New("inputs rejected")

type validateFlags struct {
	contract     string
	inputs       string
	definitionID int64
}

func newValidateCmd() *cobra.Command {
	var f validateFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate contract inputs without executing anything",
		Long: `Checks the submitted inputs against the contract's structure and then
against its constraints. Every problem is printed on its own line.

Example:
  bpmcore validate --contract contract.yaml --inputs inputs.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.contract, "contract", "", "Contract definition file (required)")
	cmd.Flags().StringVar(&f.inputs, "inputs", "", "Submitted inputs file")
	cmd.Flags().Int64Var(&f.definitionID, "definition-id", 0, "Process definition id bound while evaluating constraints")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}

func runValidate(cmd *cobra.Command, f validateFlags) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c, err := loadContract(f.contract)
	if err != nil {
		return err
	}
	inputs, err := loadInputs(f.inputs)
	if err != nil {
		return err
	}

	v := contract.New(func(o *contract.Options) {
		o.Evaluator = newEvaluator(cfg)
		o.ScriptPolicy = cfg.ScriptPolicy()
		o.RulePolicy = cfg.RulePolicy()
		o.Logger = logger
	})
	if err := v.Validate(ctx, f.definitionID, c, inputs); err != nil {
		return reportRejection(cmd, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "inputs are valid")
	return nil
}

// reportRejection prints validation problems and returns errRejected, or
// returns err unchanged when it is not a validation failure.
func reportRejection(cmd *cobra.Command, err error) error {
	if !errors.Is(err, contract.ErrInputValidation) && !errors.Is(err, contract.ErrContractViolation) {
		return err
	}
	out := cmd.OutOrStdout()
	if errors.Is(err, contract.ErrInputValidation) {
		fmt.Fprintln(out, "structure problems:")
	} else {
		fmt.Fprintln(out, "constraint violations:")
	}
	for _, p := range contract.Problems(err) {
		fmt.Fprintf(out, "  - %s\n", p)
	}
	return errRejected
}
