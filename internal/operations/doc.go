// Package operations runs the analysis pipeline as a sequence of steps.
//
// A Manager executes the steps held by a Registry in dependency order.
// Each step reads the typed Artifacts left by the steps before it and
// declares the manifest data it needs and produces, so a step whose input
// is missing is refused before it runs.
//
// The standard pipeline built by NewPipeline is:
//
//	load -> resolve -> parse -> enrich -> aggregate -> summarize -> export
//
// Steps are not retried. A failing step stops the run unless
// Config.ContinueOnError is set, in which case only its dependents are
// skipped. Every run gets one span, every step a child span, and the
// PipelineManifest written to Config.ManifestDir records what happened.
package operations
