package jobqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/swisspipe/swisspipe/metrics"
	"github.com/swisspipe/swisspipe/pkg/logger"
	"github.com/swisspipe/swisspipe/storage"
)

var ErrJobNotFound = errors.New("job not found")

// Queue is a badger-backed job queue. Jobs move between status prefixes as
// they are processed, so the queue survives restarts: whatever was pending
// before a crash is still pending after.
type Queue struct {
	db storage.Storage

	seq    storage.Sequence
	dbLock sync.Mutex

	eventCh chan uint64
	closeCh chan bool

	prefix string
	logger logger.Logger
}

type QueueOption struct {
	Prefix string
}

// New creates a queue over the storage. Call MustStart before enqueueing.
func New(db storage.Storage, l logger.Logger, opts *QueueOption) *Queue {
	q := Queue{
		db:     db,
		logger: logger.EnsureLogger(l),

		eventCh: make(chan uint64, 1000),
		closeCh: make(chan bool),

		prefix: "d",
	}

	if opts != nil && opts.Prefix != "" {
		q.prefix = opts.Prefix
	}

	return &q
}

// start Queue, panic if there is any error
func (q *Queue) MustStart() {
	var err error
	q.seq, err = q.db.GetSequence([]byte("q:seq:"+q.prefix), 1000)

	if err != nil {
		panic(err)
	}
}

// Stop the queue and release resources
func (q *Queue) Stop() error {
	close(q.closeCh)

	// release sequence to avoid wasting counter
	return q.seq.Release()
}

func getNextSeq(seq storage.Sequence) (num uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			// recover from panic and send err instead
			err = r.(error)
		}
	}()

	num, err = seq.Next()
	return num, err
}

// Enqueue stores a new Job in the pending queue and wakes the worker.
func (q *Queue) Enqueue(jobType string, name string, data []byte) (uint64, error) {
	num, err := getNextSeq(q.seq)
	if err != nil {
		return 0, err
	}

	now := time.Now().UnixMicro()
	j := &Job{
		ID:        num + 1,
		Type:      jobType,
		Name:      name,
		Data:      json.RawMessage(data),
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	b, err := encodeJob(j)
	if err != nil {
		return 0, err
	}

	if err = q.db.Set(q.getJobKey(JobPending, j.ID), b); err != nil {
		return 0, err
	}

	select {
	case q.eventCh <- j.ID:
	default:
		// channel full, the worker will pick the job up on its next drain
	}

	return j.ID, nil
}

// Dequeue moves the next pending job to inprogress and returns it. Returns
// (nil, nil) when the queue is drained.
func (q *Queue) Dequeue() (*Job, error) {
	q.dbLock.Lock()
	defer q.dbLock.Unlock()

	k, v, err := q.db.FirstKVHasPrefix(q.getQueueKeyPrefix(JobPending))
	if err != nil {
		return nil, err
	}

	// there is no more job
	if k == nil {
		return nil, nil
	}

	j, err := decodeJob(v)
	if err != nil {
		return nil, err
	}

	j.Status = JobInProgress
	j.UpdatedAt = time.Now().UnixMicro()

	b, err := encodeJob(j)
	if err != nil {
		return nil, err
	}

	if err = q.db.Delete(k); err != nil {
		return nil, err
	}
	if err = q.db.Set(q.getJobKey(JobInProgress, j.ID), b); err != nil {
		return nil, err
	}

	return j, nil
}

// markJobDone moves a job from inprogress to complete/failed, attaching the
// processor result or failure reason.
func (q *Queue) markJobDone(job *Job, status JobStatus, result []byte, jobErr string) error {
	if status != JobComplete && status != JobFailed {
		return errors.New("can only move to complete or failed status")
	}

	job.Status = status
	job.Result = json.RawMessage(result)
	job.Error = jobErr
	job.UpdatedAt = time.Now().UnixMicro()

	b, err := encodeJob(job)
	if err != nil {
		return err
	}

	q.dbLock.Lock()
	defer q.dbLock.Unlock()

	if err = q.db.Delete(q.getJobKey(JobInProgress, job.ID)); err != nil {
		return err
	}
	if err = q.db.Set(q.getJobKey(status, job.ID), b); err != nil {
		return err
	}

	metrics.IncQueueJob(string(status))
	return nil
}

// GetJob looks a job up by id regardless of its current status.
func (q *Queue) GetJob(id uint64) (*Job, error) {
	for _, status := range []JobStatus{JobPending, JobInProgress, JobComplete, JobFailed} {
		v, err := q.db.GetKey(q.getJobKey(status, id))
		if errors.Is(err, storage.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return decodeJob(v)
	}

	return nil, ErrJobNotFound
}

func (q *Queue) getQueueKeyPrefix(status JobStatus) []byte {
	return []byte(fmt.Sprintf("q:%s:%s:", q.prefix, status))
}

func (q *Queue) getJobKey(status JobStatus, jID uint64) []byte {
	return append(q.getQueueKeyPrefix(status), []byte(jobIDString(jID))...)
}
