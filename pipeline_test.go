package feather2d

import (
	"sync/atomic"
	"testing"
)

// truncatedTasks runs every loop but its last item.
type truncatedTasks struct{}

func (truncatedTasks) EnqueueTask(fn TaskFunc, itemCount, minRange int) any {
	fn(0, itemCount-1, 0)
	return nil
}

func (truncatedTasks) FinishTask(task any) {}

func TestSolverStage_Run(t *testing.T) {
	tests := []struct {
		name     string
		ts       TaskSystem
		expected bool
	}{
		{name: "single worker", ts: &goroutineTasks{workers: 1}, expected: true},
		{name: "four workers", ts: &goroutineTasks{workers: 4}, expected: true},
		{name: "lost block", ts: truncatedTasks{}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := &solverStage{blocks: appendBlocks(nil, 100, 4, 8, bodyBlock)}
			var items atomic.Int32
			stage.run(tt.ts, func(_ *solverStage, b *solverBlock, _ int) {
				items.Add(int32(b.count))
			})

			if stage.done() != tt.expected {
				t.Errorf("Expected done %v, got %v", tt.expected, stage.done())
			}
			if tt.expected && items.Load() != 100 {
				t.Errorf("Expected 100 items, got %d", items.Load())
			}
		})
	}
}

func TestSolverStage_RunTwice(t *testing.T) {
	stage := &solverStage{blocks: appendBlocks(nil, 10, 1, 4, contactBlock)}
	exec := func(*solverStage, *solverBlock, int) {}

	stage.run(&goroutineTasks{workers: 2}, exec)
	stage.run(&goroutineTasks{workers: 2}, exec)

	if !stage.done() {
		t.Errorf("Expected the counter to restart on every run")
	}
}
