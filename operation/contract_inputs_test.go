package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/testutil"
)

func TestFromContractInputs(t *testing.T) {
	contract := testutil.NewContractBuilder().
		Simple("comment", core.InputTypeText).
		Complex("invoice", false, core.SimpleInput("total", core.InputTypeDecimal, false)).
		Complex("lines", true, core.SimpleInput("sku", core.InputTypeText, false)).
		Simple("unused", core.InputTypeText).
		Build()

	inputs := map[string]any{
		"comment": "ok",
		"invoice": map[string]any{"total": 9.5},
		"lines":   []any{map[string]any{"sku": "a"}, nil},
	}
	mappings := []InputMapping{
		{Input: "lines", Target: core.LeftOperand{Category: core.CategoryBusinessData, Name: "lines"}, BusinessType: "Line"},
		{Input: "comment", Target: core.LeftOperand{Category: core.CategoryData, Name: "lastComment"}},
		{Input: "invoice", Target: core.LeftOperand{Category: core.CategoryBusinessData, Name: "invoice"}, BusinessType: "Invoice"},
		{Input: "unused", Target: core.LeftOperand{Category: core.CategoryData, Name: "unused"}},
	}

	ops, err := FromContractInputs(contract, inputs, mappings)
	require.NoError(t, err)
	require.Len(t, ops, 3)

	assert.Equal(t, "lastComment", ops[0].LeftOperand.Name)
	assert.Equal(t, core.OperatorAssignment, ops[0].Kind)
	assert.Equal(t, "ok", ops[0].RightOperand.Value)

	invoice := ops[1].RightOperand.Value.(*core.BusinessObject)
	assert.Equal(t, "Invoice", invoice.Type)
	assert.Equal(t, 9.5, invoice.Get("total"))

	lines := ops[2].RightOperand.Value.([]*core.BusinessObject)
	require.Len(t, lines, 1)
	assert.Equal(t, "a", lines[0].Get("sku"))

	inputs["invoice"].(map[string]any)["total"] = 1.0
	assert.Equal(t, 9.5, invoice.Get("total"))
}

func TestFromContractInputs_Errors(t *testing.T) {
	contract := testutil.NewContractBuilder().Complex("invoice", false).Build()

	_, err := FromContractInputs(contract, nil, []InputMapping{{Input: "nope"}})
	assert.ErrorIs(t, err, core.ErrInvalidDefinition)

	_, err = FromContractInputs(contract, map[string]any{"invoice": map[string]any{}}, []InputMapping{
		{Input: "invoice", Target: core.LeftOperand{Category: core.CategoryBusinessData, Name: "invoice"}},
	})
	assert.ErrorIs(t, err, core.ErrInvalidDefinition)
}
