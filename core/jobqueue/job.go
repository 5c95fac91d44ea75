package jobqueue

import (
	"encoding/json"
	"fmt"
)

type JobStatus string

const (
	// JobPending : waiting to be processed
	JobPending JobStatus = "pending"
	// JobInProgress : processing in progress
	JobInProgress JobStatus = "inprogress"
	// JobComplete : processing complete
	JobComplete JobStatus = "complete"
	// JobFailed : processing errored out
	JobFailed JobStatus = "failed"
)

// Job is a unit of background work, json-encoded into the queue's keyspace.
type Job struct {
	// ID is generated from a storage sequence, unique per queue
	ID uint64 `json:"id"`

	Type string `json:"type"`
	Name string `json:"name"`

	// Data is the processor input, Result its output once complete
	Data   json.RawMessage `json:"data,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`

	Status JobStatus `json:"status"`

	// Error carries the failure reason for failed jobs
	Error string `json:"error,omitempty"`

	// microseconds since epoch
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

func encodeJob(j *Job) ([]byte, error) {
	return json.Marshal(j)
}

func decodeJob(b []byte) (*Job, error) {
	j := &Job{}
	if err := json.Unmarshal(b, j); err != nil {
		return nil, err
	}
	return j, nil
}

// Fixed-width ids keep queue keys in insertion order
func jobIDString(id uint64) string {
	return fmt.Sprintf("%020d", id)
}
