package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/microfix/internal/config"
)

// translatePipeline converts the HCL-specific pipeline schema into the agnostic model.
func translatePipeline(b *pipelineBlock, evalCtx *hcl.EvalContext) (config.Settings, hcl.Diagnostics) {
	s := config.Default().Pipeline
	var diags hcl.Diagnostics

	if b.TransformTag != nil {
		if *b.TransformTag == "" {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid transform_tag",
				Detail:   "The transform_tag attribute must not be empty.",
			})
		}
		s.TransformTag = *b.TransformTag
	}

	if b.Workers != nil {
		if *b.Workers < 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid workers",
				Detail:   fmt.Sprintf("The workers attribute must be zero or positive, got %d.", *b.Workers),
			})
		}
		s.Workers = *b.Workers
	}

	f, ok, numDiags := evalNumber(b.InitialFactor, evalCtx)
	diags = append(diags, numDiags...)
	if ok {
		if !(f > 0) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid initial_factor",
				Detail:   fmt.Sprintf("The initial_factor attribute must be positive, got %v.", f),
				Subject:  b.InitialFactor.Range().Ptr(),
			})
		}
		s.InitialFactor = f
	}

	return s, diags
}

// translateRule converts the HCL-specific rule schema into the agnostic model.
func translateRule(b *ruleBlock, evalCtx *hcl.EvalContext) (config.Rule, hcl.Diagnostics) {
	r := config.Rule{
		Marker: b.Marker,
		Tag:    config.DefaultRuleTag,
		Factor: config.DefaultFactor,
	}
	var diags hcl.Diagnostics

	if b.Marker == "" {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid rule marker",
			Detail:   "The rule label is the fault marker and must not be empty.",
		})
	}
	if b.Tag != nil {
		if *b.Tag == "" {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid tag",
				Detail:   "The tag attribute must not be empty.",
			})
		}
		r.Tag = *b.Tag
	}
	if b.Diagnostic != nil {
		r.Diagnostic = *b.Diagnostic
	}

	f, ok, numDiags := evalNumber(b.Factor, evalCtx)
	diags = append(diags, numDiags...)
	if ok {
		// The accumulator must never shrink.
		if !(f > 1) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid factor",
				Detail:   fmt.Sprintf("The factor attribute must be greater than 1, got %v.", f),
				Subject:  b.Factor.Range().Ptr(),
			})
		}
		r.Factor = f
	}

	return r, diags
}
