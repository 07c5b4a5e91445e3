package feather2d

import (
	"sync"
	"sync/atomic"
)

// TaskFunc runs the items [start, end) of a parallel loop on one worker.
type TaskFunc func(start, end, workerIndex int)

// TaskSystem runs the parallel loops of a step. EnqueueTask may run the loop
// immediately and return nil. FinishTask blocks until the loop returned by
// EnqueueTask is complete.
type TaskSystem interface {
	EnqueueTask(fn TaskFunc, itemCount, minRange int) any
	FinishTask(task any)
}

// goroutineTasks splits every loop in one chunk per worker.
type goroutineTasks struct {
	workers int
}

func (g *goroutineTasks) EnqueueTask(fn TaskFunc, itemCount, minRange int) any {
	if itemCount <= 0 {
		return nil
	}
	if g.workers <= 1 || itemCount <= minRange {
		fn(0, itemCount, 0)
		return nil
	}

	workersCount := min(g.workers, (itemCount+minRange-1)/max(minRange, 1))
	chunkSize := (itemCount + workersCount - 1) / workersCount

	wg := &sync.WaitGroup{}
	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := min(start+chunkSize, itemCount)
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end, workerID int) {
			defer wg.Done()
			fn(start, end, workerID)
		}(start, end, workerID)
	}

	return wg
}

func (g *goroutineTasks) FinishTask(task any) {
	if wg, ok := task.(*sync.WaitGroup); ok {
		wg.Wait()
	}
}

// task runs fn over data in parallel and waits for completion.
func task[T any](ts TaskSystem, data []T, minRange int, fn func(item *T, workerIndex int)) {
	if len(data) == 0 {
		return
	}
	t := ts.EnqueueTask(func(start, end, workerIndex int) {
		for i := start; i < end; i++ {
			fn(&data[i], workerIndex)
		}
	}, len(data), minRange)
	ts.FinishTask(t)
}

// parallelFor runs fn over [0, count) in parallel and waits for completion.
func parallelFor(ts TaskSystem, count, minRange int, fn func(start, end, workerIndex int)) {
	if count == 0 {
		return
	}
	t := ts.EnqueueTask(fn, count, minRange)
	ts.FinishTask(t)
}

type blockKind uint8

const (
	bodyBlock blockKind = iota
	jointBlock
	contactBlock
)

// solverBlock is a contiguous run of items handed to one worker.
type solverBlock struct {
	start int
	count int
	kind  blockKind
}

// solverStage is one barrier of the solver. Workers count completed blocks
// and the stage is done when the counter reaches the block count.
type solverStage struct {
	kind            stageKind
	colorIndex      int
	blocks          []solverBlock
	completionCount atomic.Int32
}

// appendBlocks splits count items into blocks of at least minSize items,
// targeting four blocks per worker.
func appendBlocks(blocks []solverBlock, count, workerCount, minSize int, kind blockKind) []solverBlock {
	if count == 0 {
		return blocks
	}
	size := max(minSize, (count+4*workerCount-1)/(4*workerCount))
	for start := 0; start < count; start += size {
		blocks = append(blocks, solverBlock{start: start, count: min(size, count-start), kind: kind})
	}
	return blocks
}

// run executes every block of the stage and returns once all of them
// completed.
func (s *solverStage) run(ts TaskSystem, exec func(s *solverStage, b *solverBlock, workerIndex int)) {
	s.completionCount.Store(0)
	if len(s.blocks) == 0 {
		return
	}
	t := ts.EnqueueTask(func(start, end, workerIndex int) {
		for i := start; i < end; i++ {
			exec(s, &s.blocks[i], workerIndex)
			s.completionCount.Add(1)
		}
	}, len(s.blocks), 1)
	ts.FinishTask(t)
}

func (s *solverStage) done() bool {
	return int(s.completionCount.Load()) == len(s.blocks)
}
