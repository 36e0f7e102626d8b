package operations

import (
	"time"
)

// Pipeline step identifiers, in execution order
const (
	StageIDLoad      = "load"
	StageIDResolve   = "resolve"
	StageIDParse     = "parse"
	StageIDEnrich    = "enrich"
	StageIDAggregate = "aggregate"
	StageIDSummarize = "summarize"
	StageIDExport    = "export"
)

// Pipeline step names
const (
	StageNameLoad      = "Record Loading"
	StageNameResolve   = "Schema Resolution"
	StageNameParse     = "Record Parsing"
	StageNameEnrich    = "Metric Calculation"
	StageNameAggregate = "Aggregation"
	StageNameSummarize = "Summary Report"
	StageNameExport    = "Export"
)

// Context keys for per-step counters kept in OperationState.Context
const (
	ContextKeyInput         = "input"
	ContextKeyEncoding      = "encoding"
	ContextKeyRows          = "rows"
	ContextKeyRecords       = "records"
	ContextKeyDropped       = "dropped"
	ContextKeyInvalidValues = "invalid_values"
	ContextKeyGaps          = "unresolved_fields"
	ContextKeyGroupings     = "groupings"
	ContextKeyFilesWritten  = "files_written"
)

// Manifest data types produced by the steps
const (
	DataTypeTable       = "table"
	DataTypeFieldMap    = "field_map"
	DataTypeRecords     = "records"
	DataTypeEnriched    = "enriched_records"
	DataTypeResults     = "result_sets"
	DataTypeSummary     = "summary"
	DataTypeExportFiles = "export_files"
)

// ManifestFile is written next to the exports at the end of every run.
const ManifestFile = "run_manifest.json"

// OperationRequest asks the manager to analyse one input file
type OperationRequest struct {
	ID    string `json:"id"`
	Input string `json:"input"`
	// Steps limits the run to these step IDs; empty runs every step.
	Steps []string `json:"steps,omitempty"`
}

// OperationResponse represents the response from a operation execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}
