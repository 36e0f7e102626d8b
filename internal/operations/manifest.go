package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// PipelineManifest records what a run produced and how each step went.
// It is written once at the end of a run and never read back by the
// pipeline.
type PipelineManifest struct {
	mu sync.RWMutex `json:"-"`

	OperationID string    `json:"operation_id"`
	Input       string    `json:"input"`
	StartTime   time.Time `json:"start_time"`

	AvailableData map[string]*DataInfo `json:"available_data"`
	Stages        []StageExecution     `json:"stages"`

	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

// DataInfo tracks one piece of data a step produced
type DataInfo struct {
	Type      string                 `json:"type"`
	Count     int                    `json:"count"`
	Files     []string               `json:"files,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	CreatedBy string                 `json:"created_by"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID    string                 `json:"stage_id"`
	StageName  string                 `json:"stage_name"`
	StartTime  time.Time              `json:"start_time"`
	EndTime    time.Time              `json:"end_time"`
	Duration   string                 `json:"duration"`
	Status     string                 `json:"status"`
	OutputData []string               `json:"output_data,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewPipelineManifest creates a new pipeline manifest
func NewPipelineManifest(operationID, input string) *PipelineManifest {
	now := time.Now()
	return &PipelineManifest{
		OperationID:   operationID,
		Input:         input,
		StartTime:     now,
		AvailableData: make(map[string]*DataInfo),
		Stages:        []StageExecution{},
		Status:        "pending",
		LastUpdated:   now,
	}
}

// HasData checks if a specific type of data is available
func (m *PipelineManifest) HasData(dataType string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.AvailableData[dataType]
	return exists
}

// GetData returns information about available data
func (m *PipelineManifest) GetData(dataType string) (*DataInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.AvailableData[dataType]
	return data, exists
}

// AddData records newly available data
func (m *PipelineManifest) AddData(dataType string, info *DataInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info.Type = dataType
	info.CreatedAt = time.Now()
	m.AvailableData[dataType] = info
	m.LastUpdated = info.CreatedAt
}

// RecordStageStart records the start of a stage execution
func (m *PipelineManifest) RecordStageStart(stageID, stageName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = "running"
	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		StartTime: time.Now(),
		Status:    "running",
	})
	m.LastUpdated = time.Now()
}

// RecordStageCompletion records the completion of a stage
func (m *PipelineManifest) RecordStageCompletion(stageID string, outputData []string, metadata map[string]interface{}) {
	m.finishStage(stageID, "completed", "", func(s *StageExecution) {
		s.OutputData = outputData
		s.Metadata = metadata
	})
}

// RecordStageFailure records a stage failure
func (m *PipelineManifest) RecordStageFailure(stageID string, err error) {
	m.finishStage(stageID, "failed", err.Error(), nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = "failed"
	m.Error = fmt.Sprintf("stage %s failed: %v", stageID, err)
}

// RecordStageSkipped records a stage that never ran
func (m *PipelineManifest) RecordStageSkipped(stageID, stageName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		StartTime: now,
		EndTime:   now,
		Duration:  "0s",
		Status:    "skipped",
		Error:     reason,
	})
	m.LastUpdated = now
}

func (m *PipelineManifest) finishStage(stageID, status, errMsg string, update func(*StageExecution)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.Stages) - 1; i >= 0; i-- {
		s := &m.Stages[i]
		if s.StageID != stageID {
			continue
		}
		s.EndTime = time.Now()
		s.Duration = s.EndTime.Sub(s.StartTime).String()
		s.Status = status
		s.Error = errMsg
		if update != nil {
			update(s)
		}
		break
	}
	m.LastUpdated = time.Now()
}

// Finish sets the final run status
func (m *PipelineManifest) Finish(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = status
	m.LastUpdated = time.Now()
}

// IsStageCompleted checks if a stage has been completed
func (m *PipelineManifest) IsStageCompleted(stageID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stage := range m.Stages {
		if stage.StageID == stageID && stage.Status == "completed" {
			return true
		}
	}
	return false
}

// GetProgress returns the percentage of recorded stages that completed
func (m *PipelineManifest) GetProgress(totalStages int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if totalStages <= 0 {
		return 0
	}
	completed := 0
	for _, stage := range m.Stages {
		if stage.Status == "completed" {
			completed++
		}
	}
	return (completed * 100) / totalStages
}

// SaveToFile saves the manifest to a JSON file
func (m *PipelineManifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}
