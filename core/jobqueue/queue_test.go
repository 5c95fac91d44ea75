package jobqueue

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/swisspipe/swisspipe/core/testutil"
	"github.com/swisspipe/swisspipe/storage"
)

func newTestQueue(t *testing.T) (*Queue, storage.Storage) {
	db := testutil.TestMustDB()
	t.Cleanup(func() {
		_ = storage.Destroy(db.(*storage.BadgerStorage))
	})

	q := New(db, testutil.GetLogger(), &QueueOption{Prefix: "test"})
	q.MustStart()
	t.Cleanup(func() {
		_ = q.Stop()
	})

	return q, db
}

func TestEnqueueDequeue(t *testing.T) {
	q, _ := newTestQueue(t)

	id1, err := q.Enqueue("generate_workflow", "first", []byte(`{"prompt":"a"}`))
	assert.NoError(t, err)
	id2, err := q.Enqueue("generate_workflow", "second", []byte(`{"prompt":"b"}`))
	assert.NoError(t, err)
	assert.Greater(t, id2, id1)

	// FIFO order
	job, err := q.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, id1, job.ID)
	assert.Equal(t, "first", job.Name)
	assert.Equal(t, JobInProgress, job.Status)

	job, err = q.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, id2, job.ID)

	// drained
	job, err = q.Dequeue()
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestJobLifecycle(t *testing.T) {
	q, _ := newTestQueue(t)

	id, err := q.Enqueue("generate_code", "lifecycle", []byte(`{}`))
	assert.NoError(t, err)

	job, err := q.GetJob(id)
	assert.NoError(t, err)
	assert.Equal(t, JobPending, job.Status)

	job, err = q.Dequeue()
	assert.NoError(t, err)

	assert.NoError(t, q.markJobDone(job, JobComplete, []byte(`{"code":"ok"}`), ""))

	done, err := q.GetJob(id)
	assert.NoError(t, err)
	assert.Equal(t, JobComplete, done.Status)
	assert.JSONEq(t, `{"code":"ok"}`, string(done.Result))
	assert.Empty(t, done.Error)
}

func TestJobFailure(t *testing.T) {
	q, _ := newTestQueue(t)

	id, err := q.Enqueue("generate_code", "doomed", []byte(`{}`))
	assert.NoError(t, err)

	job, err := q.Dequeue()
	assert.NoError(t, err)

	assert.NoError(t, q.markJobDone(job, JobFailed, nil, "upstream timeout"))

	failed, err := q.GetJob(id)
	assert.NoError(t, err)
	assert.Equal(t, JobFailed, failed.Status)
	assert.Equal(t, "upstream timeout", failed.Error)
}

func TestGetJobNotFound(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.GetJob(424242)
	assert.True(t, errors.Is(err, ErrJobNotFound))
}

type echoProcessor struct{}

func (p *echoProcessor) Perform(j *Job) ([]byte, error) {
	return j.Data, nil
}

type failingProcessor struct{}

func (p *failingProcessor) Perform(j *Job) ([]byte, error) {
	return nil, fmt.Errorf("boom")
}

func waitForStatus(t *testing.T, q *Queue, id uint64, want JobStatus) *Job {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := q.GetJob(id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("job %d never reached status %s", id, want)
	return nil
}

func TestWorkerProcessesJobs(t *testing.T) {
	q, db := newTestQueue(t)

	w := NewWorker(q, db)
	w.RegisterProcessor("echo", &echoProcessor{})
	w.RegisterProcessor("fail", &failingProcessor{})
	w.MustStart()

	okID, err := q.Enqueue("echo", "ok-job", []byte(`{"hello":"world"}`))
	assert.NoError(t, err)
	failID, err := q.Enqueue("fail", "fail-job", []byte(`{}`))
	assert.NoError(t, err)
	unknownID, err := q.Enqueue("mystery", "unknown-job", []byte(`{}`))
	assert.NoError(t, err)

	done := waitForStatus(t, q, okID, JobComplete)
	assert.JSONEq(t, `{"hello":"world"}`, string(done.Result))

	failed := waitForStatus(t, q, failID, JobFailed)
	assert.Equal(t, "boom", failed.Error)

	unknown := waitForStatus(t, q, unknownID, JobFailed)
	assert.Contains(t, unknown.Error, "unsupported job type")
}
