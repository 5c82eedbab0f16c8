package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/microfix/internal/config"
	"github.com/specialistvlad/microfix/internal/ctxlog"
	"github.com/specialistvlad/microfix/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire HCL configuration loading process. Files are
// read in path order and merged: at most one `pipeline` block overall, rule
// markers unique across files, batches concatenated.
func (l *Loader) Load(ctx context.Context, vars map[string]string, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths), "var_count", len(vars))

	hclFiles, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := config.Default()
	evalCtx := newEvalContext(vars)
	parser := hclparse.NewParser()

	var (
		pipelineFile string
		rules        []config.Rule
		seenMarkers  = make(map[string]string)
	)

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Pipeline != nil {
			if pipelineFile != "" {
				return nil, fmt.Errorf("duplicate pipeline block in %s: already defined in %s", file, pipelineFile)
			}
			pipelineFile = file
			settings, diags := translatePipeline(root.Pipeline, evalCtx)
			if diags.HasErrors() {
				return nil, fmt.Errorf("invalid pipeline block in %s: %w", file, diags)
			}
			model.Pipeline = settings
		}

		for _, rb := range root.Rules {
			if prev, dup := seenMarkers[rb.Marker]; dup {
				return nil, fmt.Errorf("duplicate rule %q in %s: already defined in %s", rb.Marker, file, prev)
			}
			seenMarkers[rb.Marker] = file

			rule, diags := translateRule(rb, evalCtx)
			if diags.HasErrors() {
				return nil, fmt.Errorf("invalid rule %q in %s: %w", rb.Marker, file, diags)
			}
			rules = append(rules, rule)
		}

		for _, b := range root.Batches {
			model.Directives = append(model.Directives, b.Directives...)
		}
	}

	// Rules replace the default rule only when at least one is declared.
	if len(rules) > 0 {
		model.Rules = rules
	}

	logger.Debug("HCL loading complete.", "files", len(hclFiles), "rules", len(model.Rules), "directives", len(model.Directives))
	return model, nil
}
