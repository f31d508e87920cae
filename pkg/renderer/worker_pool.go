package renderer

import (
	"context"
	"image"
	"runtime"
	"sync"
)

// TileTask is one unit of work: render Tile into the shared Image
type TileTask struct {
	Tile   *Tile
	TaskID int         // Index into the tile grid
	Image  *image.RGBA // Tiles write disjoint bounds, so no locking is needed
}

// TileResult reports the outcome of a TileTask
type TileResult struct {
	TaskID int
	Stats  RenderStats
	Error  error
}

// TileRenderer renders the pixels of a single tile
type TileRenderer interface {
	RenderTile(ctx context.Context, tile *Tile, img *image.RGBA) (RenderStats, error)
}

// WorkerPool runs tile tasks on a fixed set of goroutines
type WorkerPool struct {
	renderer   TileRenderer
	tasks      chan TileTask
	results    chan TileResult
	numWorkers int
	wg         sync.WaitGroup
}

// NewWorkerPool creates a pool whose queues hold maxTasks entries, so every
// tile can be submitted before any result is read. numWorkers <= 0 uses one
// worker per CPU.
func NewWorkerPool(renderer TileRenderer, numWorkers, maxTasks int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		renderer:   renderer,
		tasks:      make(chan TileTask, maxTasks),
		results:    make(chan TileResult, maxTasks),
		numWorkers: numWorkers,
	}
}

// Start launches the workers. Tasks dequeued after ctx is done are not
// rendered and report ctx.Err() instead.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.wg.Add(wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		go func() {
			defer wp.wg.Done()
			for task := range wp.tasks {
				wp.results <- wp.process(ctx, task)
			}
		}()
	}
}

func (wp *WorkerPool) process(ctx context.Context, task TileTask) TileResult {
	if err := ctx.Err(); err != nil {
		return TileResult{TaskID: task.TaskID, Error: err}
	}
	stats, err := wp.renderer.RenderTile(ctx, task.Tile, task.Image)
	return TileResult{TaskID: task.TaskID, Stats: stats, Error: err}
}

// Stop closes the task queue and waits for in-flight tiles to finish.
// Results already produced stay readable.
func (wp *WorkerPool) Stop() {
	close(wp.tasks)
	wp.wg.Wait()
	close(wp.results)
}

// SubmitTask queues a tile
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.tasks <- task
}

// GetResult blocks for the next finished tile. ok is false once the pool is
// stopped and drained.
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.results
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}
