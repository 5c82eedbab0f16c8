package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// newEvalContext exposes user-supplied variables as the `var` object. Every
// variable is a string; HCL converts it when an attribute needs a number.
func newEvalContext(vars map[string]string) *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(vars))
	for name, v := range vars {
		vals[name] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(vals),
		},
	}
}

// evalNumber evaluates an optional numeric expression. ok is false when the
// attribute was left out.
func evalNumber(expr hcl.Expression, evalCtx *hcl.EvalContext) (f float64, ok bool, diags hcl.Diagnostics) {
	if expr == nil {
		return 0, false, nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, false, diags
	}
	if val.IsNull() {
		return 0, false, diags
	}

	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, false, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid number",
			Detail:   "A number is required: " + err.Error() + ".",
			Subject:  expr.Range().Ptr(),
		})
	}
	if !num.IsKnown() || num.IsNull() {
		return 0, false, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid number",
			Detail:   "The value must be known and not null.",
			Subject:  expr.Range().Ptr(),
		})
	}

	bf := num.AsBigFloat()
	if bf.IsInf() {
		return 0, false, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid number",
			Detail:   "The value must be finite.",
			Subject:  expr.Range().Ptr(),
		})
	}
	f, _ = bf.Float64()
	return f, true, diags
}
