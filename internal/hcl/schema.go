package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Pipeline *pipelineBlock `hcl:"pipeline,block"`
	Rules    []*ruleBlock   `hcl:"rule,block"`
	Batches  []*batchBlock  `hcl:"batch,block"`
}

// pipelineBlock is the HCL schema for the `pipeline` block.
type pipelineBlock struct {
	TransformTag  *string        `hcl:"transform_tag,optional"`
	Workers       *int           `hcl:"workers,optional"`
	InitialFactor hcl.Expression `hcl:"initial_factor,optional"`
}

// ruleBlock is the HCL schema for a `rule "<marker>"` block. Factor is kept
// as a raw expression so validation errors can point at its source range.
type ruleBlock struct {
	Marker     string         `hcl:"marker,label"`
	Tag        *string        `hcl:"tag,optional"`
	Factor     hcl.Expression `hcl:"factor,optional"`
	Diagnostic *string        `hcl:"diagnostic,optional"`
}

// batchBlock is the HCL schema for a `batch` block.
type batchBlock struct {
	Directives []string `hcl:"directives,attr"`
}
