package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"esgcli/internal/infrastructure"
)

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *OperationTracer
	logger   *slog.Logger

	mu         sync.RWMutex
	operations map[string]*OperationState
}

// NewManager creates a new operation manager. Nil arguments get defaults.
func NewManager(registry *Registry, config *Config, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Manager{
		registry:   registry,
		config:     config,
		tracer:     tracer,
		logger:     infrastructure.WithComponent(logger, "operations"),
		operations: make(map[string]*OperationState),
	}
}

// RegisterStage registers a Step with the operation
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs the requested steps against req.Input. The returned state
// carries every artifact produced, including on failure.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationState, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateRunID()
	}

	state := NewOperationState(req.ID, req.Input)
	state.SetContext(ContextKeyInput, req.Input)
	m.storeOperation(state)
	defer m.removeOperation(req.ID)

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, req.Input)
	defer span.End()

	steps, err := m.registry.Select(req.Steps)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		err = NewFatalError("failed to resolve step order", err)
		state.Fail(err)
		m.tracer.RecordOperationCompletion(ctx, span, req.ID, 0, err)
		return state, err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	m.logOperationStart(ctx, req.ID, req.Input, len(steps))
	state.Start()

	err = m.executeSequential(ctx, state, steps)

	switch {
	case err != nil && GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
		state.Manifest.Finish(string(OperationStatusCancelled))
	case err != nil:
		state.Fail(err)
		state.Manifest.Finish(string(OperationStatusFailed))
	default:
		state.Complete()
		state.Manifest.Finish(string(OperationStatusCompleted))
	}

	m.saveManifest(ctx, state)
	m.logOperationComplete(ctx, req.ID, state.Duration(), string(state.GetStatus()))
	m.tracer.RecordOperationCompletion(ctx, span, req.ID, state.Duration(), err)

	return state, err
}

// executeSequential executes steps one by one. A failed step skips every
// step that depends on it; without ContinueOnError it stops the run.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	progress := NewProgressTracker(len(steps))
	var firstErr error

	for i, step := range steps {
		stepState := state.GetStage(step.ID())

		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID(), err)
		}

		if stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "stage_skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		if err := m.checkDependencies(state, step); err != nil {
			stepState.Skip(err.Error())
			state.Manifest.RecordStageSkipped(step.ID(), step.Name(), err.Error())
			continue
		}

		if err := m.executeStage(ctx, state, step); err != nil {
			m.logStageError(ctx, state.ID, step.ID(), err)
			if firstErr == nil {
				firstErr = err
			}
			if GetErrorType(err) == ErrorTypeCancellation || !m.config.ContinueOnError {
				m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
				return err
			}
			m.skipDependentStages(state, step.ID())
			continue
		}

		progress.Increment(step.Name())
		_, total, pct, _ := progress.GetProgress()
		m.logger.DebugContext(ctx, "operation_progress",
			slog.String("operation_id", state.ID),
			slog.Int("total_steps", total),
			slog.Float64("percent", pct),
			slog.String("eta", progress.GetETA()))
	}

	return firstErr
}

// executeStage runs a single step inside its own span
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())

	ctx, span := m.tracer.TraceStageExecution(ctx, state.ID, step.ID())
	defer span.End()

	if !step.CanRun(state.Manifest) {
		var missing []string
		for _, req := range step.RequiredInputs() {
			if !req.Optional && !state.Manifest.HasData(req.Type) {
				missing = append(missing, req.Type)
			}
		}
		err := NewDependencyError(step.ID(), fmt.Sprint(missing), "required data not available")
		stepState.Fail(err)
		state.Manifest.RecordStageSkipped(step.ID(), step.Name(), err.Error())
		m.tracer.RecordStageCompletion(ctx, span, step.ID(), 0, err)
		return err
	}

	if err := step.Validate(state); err != nil {
		vErr := NewValidationError(step.ID(), err.Error())
		vErr.Cause = err
		stepState.Fail(vErr)
		state.Manifest.RecordStageSkipped(step.ID(), step.Name(), vErr.Error())
		m.tracer.RecordStageCompletion(ctx, span, step.ID(), 0, vErr)
		return vErr
	}

	m.logStageStart(ctx, state.ID, step.ID())
	stepState.Start()
	state.Manifest.RecordStageStart(step.ID(), step.Name())

	start := time.Now()
	err := step.Execute(ctx, state)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			err = NewCancellationError(step.ID(), err)
		} else {
			err = WrapError(err, step.ID(), "step execution failed")
		}
		stepState.Fail(err)
		state.Manifest.RecordStageFailure(step.ID(), err)
		m.tracer.RecordStageCompletion(ctx, span, step.ID(), duration, err)
		return err
	}

	stepState.Complete()
	state.Manifest.RecordStageCompletion(step.ID(), step.ProducedOutputs(), stepState.MetadataSnapshot())
	m.tracer.RecordStageCompletion(ctx, span, step.ID(), duration, nil)
	m.logStageComplete(ctx, state.ID, step.ID(), duration)
	return nil
}

// skipDependentStages marks all steps that depend on the failed Step as skipped
func (m *Manager) skipDependentStages(state *OperationState, failedStageID string) {
	for _, step := range m.registry.GetDependents(failedStageID) {
		stepState := state.GetStage(step.ID())
		if stepState != nil && stepState.GetStatus() == StepStatusPending {
			reason := fmt.Sprintf("dependency %s failed", failedStageID)
			stepState.Skip(reason)
			state.Manifest.RecordStageSkipped(step.ID(), step.Name(), reason)
		}
	}
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		stepState := state.GetStage(step.ID())
		if stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(reason)
			state.Manifest.RecordStageSkipped(step.ID(), step.Name(), reason)
		}
	}
}

// checkDependencies verifies that all dependencies are satisfied
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not scheduled", dep))
		}
		if s := depState.GetStatus(); s != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not completed (status: %s)", dep, s))
		}
	}
	return nil
}

func (m *Manager) saveManifest(ctx context.Context, state *OperationState) {
	if m.config.ManifestDir == "" {
		return
	}
	path := filepath.Join(m.config.ManifestDir, ManifestFile)
	if err := state.Manifest.SaveToFile(path); err != nil {
		m.logger.WarnContext(ctx, "manifest_write_failed",
			slog.String("operation_id", state.ID),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	m.logger.DebugContext(ctx, "manifest_written", slog.String("path", path))
}

// NewResponse summarises a finished state
func NewResponse(state *OperationState) *OperationResponse {
	state.mu.RLock()
	defer state.mu.RUnlock()

	resp := &OperationResponse{
		ID:     state.ID,
		Status: state.Status,
		Steps:  state.Steps,
	}
	if state.EndTime != nil {
		resp.Duration = state.EndTime.Sub(state.StartTime)
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

// GetOperation retrieves the state of a running operation
func (m *Manager) GetOperation(id string) (*OperationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, fmt.Errorf("operation %s not found", id)
	}
	return state, nil
}

func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}
