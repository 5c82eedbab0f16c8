// Package pipeline implements the directive-batch execution pipeline.
//
// A Pipeline owns a batch of directives, a multiplicative accumulator (the
// optimization factor), a stability flag, and a list of diagnostics. Run
// drives the batch through four stages:
//
//  1. Classify: every directive whose text contains a fault rule's marker is
//     tagged with the rule's tag and multiplies the accumulator by the rule's
//     factor. Rules with a diagnostic message also record the message and
//     clear the stability flag.
//  2. Transform: every directive receives the transform tag.
//  3. Stabilize: an unstable pipeline is auto-fixed by discarding its
//     diagnostics and restoring the flag. Nothing is resolved; the number of
//     discarded diagnostics is reported on the Result.
//  4. Execute: one line per directive is written to the output writer.
//
// # Concurrency
//
// Classify, Transform and Stabilize always run on a single goroutine, so the
// accumulator and stability flag are never contended. In Parallel mode the
// Execute stage dispatches one task per directive; each task holds the
// pipeline's emission lock while it writes its line. Lines are therefore
// never interleaved, but their order is unspecified. Sequential mode writes
// lines in batch order.
//
// The emission lock belongs to the Pipeline instance. Independent pipelines
// never contend with each other.
//
// A fault marker match never fails a run. The only errors Run reports are
// ErrPipelineBusy, for a run started while another is in progress on the same
// instance, and failures of the output writer.
package pipeline
