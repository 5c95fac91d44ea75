package versions

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/swisspipe/swisspipe/metrics"
)

// StartRetentionSweep runs RunRetentionSweep on a fixed interval. The
// returned scheduler must be shut down by the caller on exit.
func (s *Service) StartRetentionSweep(interval time.Duration) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			pruned, err := s.RunRetentionSweep()
			if err != nil {
				s.logger.Error("version retention sweep failed", "error", err)
				return
			}
			if pruned > 0 {
				s.logger.Info("version retention sweep completed", "pruned", pruned)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	s.logger.Info("started version retention sweep",
		"interval", interval,
		"max_versions_per_workflow", s.maxVersionsPerWorkflow)

	return scheduler, nil
}

// RunRetentionSweep prunes every workflow's history down to the newest
// maxVersionsPerWorkflow entries and returns how many versions were removed.
func (s *Service) RunRetentionSweep() (int64, error) {
	keys, err := s.db.ListKeys(string(AllVersionsPrefix()))
	if err != nil {
		return 0, err
	}

	// Keys arrive in ascending order, so each workflow's slice is oldest first
	byWorkflow := map[string][]string{}
	for _, key := range keys {
		wf := WorkflowIdFromStorageKey([]byte(key))
		if wf == "" {
			continue
		}
		byWorkflow[wf] = append(byWorkflow[wf], key)
	}

	pruned := int64(0)
	for wf, wfKeys := range byWorkflow {
		excess := int64(len(wfKeys)) - s.maxVersionsPerWorkflow
		if excess <= 0 {
			continue
		}

		for _, key := range wfKeys[:excess] {
			if err := s.db.Delete([]byte(key)); err != nil {
				return pruned, err
			}
			pruned++
		}

		s.logger.Debug("pruned workflow versions", "workflow_id", wf, "pruned", excess)
	}

	if pruned > 0 {
		metrics.AddVersionsPruned(float64(pruned))
	}
	return pruned, nil
}
