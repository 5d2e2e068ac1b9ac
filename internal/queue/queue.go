package queue

import (
	"sync"

	"lobby-backend/internal/logging"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

// Job is a unit of work. Jobs sharing a non-empty Key run one at a time, in
// the order they were queued; jobs without a Key go to any free worker.
type Job struct {
	Fn   func() error
	Errc chan error
	Key  string
}

// RequestQueueManager runs jobs on a fixed pool of workers. HTTP handlers use
// the blocking EnqueueJob; the lobby uses TryEnqueueJob so callers holding
// locks never wait on the pool.
type RequestQueueManager struct {
	JobQueue   chan Job
	lanes      []chan Job
	MaxWorkers int
	log        *logrus.Entry
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

func NewRequestQueueManager(queueSize int, maxWorkers int) *RequestQueueManager {
	return NewRequestQueueManagerWithLogger(queueSize, maxWorkers, logging.Discard())
}

func NewRequestQueueManagerWithLogger(queueSize int, maxWorkers int, log *logrus.Entry) *RequestQueueManager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	manager := &RequestQueueManager{
		JobQueue:   make(chan Job, queueSize),
		lanes:      make([]chan Job, maxWorkers),
		MaxWorkers: maxWorkers,
		log:        log.WithField("component", "queue"),
	}
	for i := range manager.lanes {
		manager.lanes[i] = make(chan Job, queueSize)
	}
	manager.startWorkers()
	return manager
}

func (rqm *RequestQueueManager) startWorkers() {
	for i := 0; i < rqm.MaxWorkers; i++ {
		rqm.wg.Add(1)
		go func(workerID int) {
			defer rqm.wg.Done()
			rqm.log.WithField("worker", workerID).Debug("worker started")
			shared, lane := rqm.JobQueue, rqm.lanes[workerID]
			for shared != nil || lane != nil {
				var (
					job Job
					ok  bool
				)
				select {
				case job, ok = <-shared:
					if !ok {
						shared = nil
						continue
					}
				case job, ok = <-lane:
					if !ok {
						lane = nil
						continue
					}
				}
				err := rqm.run(job)
				if job.Errc != nil {
					job.Errc <- err
				}
			}
			rqm.log.WithField("worker", workerID).Debug("worker stopped")
		}(i)
	}
}

func (rqm *RequestQueueManager) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rqm.log.WithField("panic", r).Error("job panicked")
			err = errJobPanicked
		}
	}()
	return job.Fn()
}

// laneFor picks the channel a job is queued on. A keyed job always lands on
// the same worker's lane.
func (rqm *RequestQueueManager) laneFor(job Job) chan Job {
	if job.Key == "" {
		return rqm.JobQueue
	}
	return rqm.lanes[xxhash.Sum64String(job.Key)%uint64(len(rqm.lanes))]
}

// Depth is the number of jobs waiting for a worker.
func (rqm *RequestQueueManager) Depth() int {
	depth := len(rqm.JobQueue)
	for _, lane := range rqm.lanes {
		depth += len(lane)
	}
	return depth
}

// EnqueueJob blocks until the job is queued. It reports false once the
// manager is shut down.
func (rqm *RequestQueueManager) EnqueueJob(job Job) bool {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		return false
	}
	rqm.laneFor(job) <- job
	return true
}

// TryEnqueueJob queues the job only if there is room right now.
func (rqm *RequestQueueManager) TryEnqueueJob(job Job) bool {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		return false
	}
	select {
	case rqm.laneFor(job) <- job:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (rqm *RequestQueueManager) Shutdown() {
	rqm.mu.Lock()
	if rqm.closed {
		rqm.mu.Unlock()
		return
	}
	rqm.closed = true
	close(rqm.JobQueue)
	for _, lane := range rqm.lanes {
		close(lane)
	}
	rqm.mu.Unlock()
	rqm.wg.Wait()
}
