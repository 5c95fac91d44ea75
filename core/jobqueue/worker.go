package jobqueue

import (
	"time"

	"github.com/swisspipe/swisspipe/pkg/logger"
	"github.com/swisspipe/swisspipe/storage"
)

// JobProcessor performs one job and returns its result payload.
type JobProcessor interface {
	Perform(j *Job) ([]byte, error)
}

// Worker monitors the queue and dispatches jobs to registered processors by
// job type.
type Worker struct {
	q  *Queue
	db storage.Storage

	processorRegistry map[string]JobProcessor
	logger            logger.Logger
}

func NewWorker(q *Queue, db storage.Storage) *Worker {
	return &Worker{
		q:      q,
		db:     db,
		logger: q.logger,

		processorRegistry: make(map[string]JobProcessor),
	}
}

func (w *Worker) RegisterProcessor(jobType string, processor JobProcessor) {
	w.processorRegistry[jobType] = processor
}

func (w *Worker) loop() {
	// Drain anything left over from a previous run before waiting on events
	w.drain()

	for {
		select {
		case <-w.q.eventCh:
			w.drain()
		case <-time.After(30 * time.Second):
			// safety net for enqueue events dropped on a full channel
			w.drain()
		case <-w.q.closeCh:
			return
		}
	}
}

func (w *Worker) drain() {
	for {
		job, err := w.q.Dequeue()
		if err != nil {
			w.logger.Error("failed to dequeue", "error", err)
			return
		}
		if job == nil {
			return
		}

		w.perform(job)
	}
}

func (w *Worker) perform(job *Job) {
	processor, ok := w.processorRegistry[job.Type]
	if !ok {
		w.logger.Warn("unsupported job type", "job_id", job.ID, "type", job.Type)
		if err := w.q.markJobDone(job, JobFailed, nil, "unsupported job type: "+job.Type); err != nil {
			w.logger.Error("failed to mark job failed", "error", err, "job_id", job.ID)
		}
		return
	}

	result, err := processor.Perform(job)
	if err == nil {
		if err = w.q.markJobDone(job, JobComplete, result, ""); err != nil {
			w.logger.Error("failed to mark job complete", "error", err, "job_id", job.ID)
			return
		}
		w.logger.Info("successfully performed job", "job_id", job.ID, "name", job.Name)
		return
	}

	if markErr := w.q.markJobDone(job, JobFailed, nil, err.Error()); markErr != nil {
		w.logger.Error("failed to mark job failed", "error", markErr, "job_id", job.ID)
	}
	w.logger.Error("failed to perform job", "error", err, "job_id", job.ID, "name", job.Name)
}

func (w *Worker) MustStart() {
	go w.loop()
}
