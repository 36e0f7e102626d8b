package operations

import (
	"sync"
	"time"

	"esgcli/internal/dataprocessing"
	"esgcli/pkg/contracts/domain"
)

// OperationStatusValue represents the overall operation status enum
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// Artifacts carries the typed outputs each step hands to the next.
type Artifacts struct {
	Table      *domain.Table
	Profile    []dataprocessing.ColumnProfile
	FieldMap   *domain.FieldMap
	Records    []domain.Record
	ParseStats dataprocessing.ParseStats
	Enriched   []domain.Record

	Results     []*domain.ResultSet
	Correlation *dataprocessing.CorrelationMatrix
	Progress    []dataprocessing.ProgressEntry
	Latest      []dataprocessing.LatestRanking
	Deltas      []dataprocessing.DeltaBucket

	Summary *domain.SummaryReport
	// Files maps export format to the files written for it.
	Files map[string][]string
}

// OperationState represents the complete state of a operation execution
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Input     string               `json:"input"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`

	// Context holds counters surfaced in logs and the manifest
	Context map[string]interface{} `json:"context"`

	Artifacts *Artifacts `json:"-"`
	Manifest  *PipelineManifest `json:"-"`

	Error error `json:"-"`
}

// NewOperationState creates a new operation state
func NewOperationState(id, input string) *OperationState {
	return &OperationState{
		ID:        id,
		Input:     input,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]interface{}),
		Artifacts: &Artifacts{Files: make(map[string][]string)},
		Manifest:  NewPipelineManifest(id, input),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the operation status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage updates the state of a specific Step
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// GetContext retrieves a value from the operation context
func (p *OperationState) GetContext(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Context[key]
	return val, ok
}

// SetContext sets a value in the operation context
func (p *OperationState) SetContext(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Context[key] = value
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// GetFailedStages returns all failed steps
func (p *OperationState) GetFailedStages() []*StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var failed []*StepState
	for _, step := range p.Steps {
		if step.GetStatus() == StepStatusFailed {
			failed = append(failed, step)
		}
	}
	return failed
}

// IsComplete returns true if all steps are completed or skipped
func (p *OperationState) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, step := range p.Steps {
		if s := step.GetStatus(); s == StepStatusPending || s == StepStatusActive {
			return false
		}
	}
	return true
}
