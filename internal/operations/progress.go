package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker tracks how many steps of a run have finished
type ProgressTracker struct {
	Total     int
	Current   int
	StartTime time.Time
	Message   string
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// Increment increments the current progress by 1
func (p *ProgressTracker) Increment(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Current++
	p.Message = message
}

// GetProgress returns the current progress state
func (p *ProgressTracker) GetProgress() (current, total int, percentage float64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Total > 0 {
		percentage = float64(p.Current) / float64(p.Total) * 100
	}
	return p.Current, p.Total, percentage, p.Message
}

// GetETA estimates the time remaining from the average step duration
func (p *ProgressTracker) GetETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Current == 0 || p.Total == 0 {
		return "calculating..."
	}

	perStep := time.Since(p.StartTime) / time.Duration(p.Current)
	remaining := perStep * time.Duration(p.Total-p.Current)

	switch {
	case remaining < time.Second:
		return fmt.Sprintf("%d ms", remaining.Milliseconds())
	case remaining < time.Minute:
		return fmt.Sprintf("%.0f seconds", remaining.Seconds())
	default:
		return fmt.Sprintf("%.1f minutes", remaining.Minutes())
	}
}

// IsComplete returns true if every step has finished
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.Current >= p.Total
}
