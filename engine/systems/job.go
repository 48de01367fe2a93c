package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-gl/engine/core"
)

// Job is work run on a worker goroutine. Its callbacks run later, on the
// goroutine calling JobSystem.Update, which is the one owning the GL
// context.
type Job struct {
	Name       string
	Run        func() (interface{}, error)
	OnComplete func(result interface{})
	OnFailure  func(err error)
}

type jobResult struct {
	job    Job
	result interface{}
	err    error
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	completed  chan jobResult
	wg         sync.WaitGroup
	pending    sync.WaitGroup
	closeOnce  sync.Once
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
		completed:  make(chan jobResult, channelSize+numWorkers),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				result, err := job.Run()
				if err != nil {
					core.LogError("job %s failed: %s", job.Name, err)
				}
				js.completed <- jobResult{job: job, result: result, err: err}
			}
		}()
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run; their callbacks
 * are dropped.
 */
func (js *JobSystem) Shutdown() error {
	js.closeOnce.Do(func() {
		close(js.jobQueue)
		go func() {
			for range js.completed {
				js.pending.Done()
			}
		}()
		js.wg.Wait()
		close(js.completed)
	})
	return nil
}

/**
 * @brief Runs the callbacks of finished jobs. Should happen once an update
 * cycle. Returns how many jobs were completed.
 */
func (js *JobSystem) Update() int {
	n := 0
	for {
		select {
		case r := <-js.completed:
			js.dispatch(r)
			n++
		default:
			return n
		}
	}
}

// Wait blocks until every submitted job finished, running callbacks as
// they come in.
func (js *JobSystem) Wait() {
	done := make(chan struct{})
	go func() {
		js.pending.Wait()
		close(done)
	}()
	for {
		select {
		case r := <-js.completed:
			js.dispatch(r)
		case <-done:
			js.Update()
			return
		}
	}
}

func (js *JobSystem) dispatch(r jobResult) {
	defer js.pending.Done()
	if r.err != nil {
		if r.job.OnFailure != nil {
			r.job.OnFailure(r.err)
		}
		return
	}
	if r.job.OnComplete != nil {
		r.job.OnComplete(r.result)
	}
}

/**
 * @brief Submits the provided job to be queued for execution. While the
 * queue is full, finished jobs are dispatched to make room.
 * @param job The description of the job to be executed.
 */
func (js *JobSystem) Submit(job Job) {
	js.pending.Add(1)
	for {
		select {
		case js.jobQueue <- job:
			return
		case r := <-js.completed:
			js.dispatch(r)
		}
	}
}
