// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It discovers .hcl files, parses and decodes them against an
// evaluation context that exposes user variables as `var.<name>`, validates
// the result, and translates it into the format-agnostic config.Model.
package hcl
