package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskOutreachRun = "outreach.run"

// runUniqueTTL keeps a second run from being queued while one is waiting.
const runUniqueTTL = 30 * time.Minute

type OutreachRunPayload struct {
	// Limit is the dispatch batch size; zero means the configured default.
	Limit   int    `json:"limit"`
	Trigger string `json:"trigger"`
}

func NewOutreachRunTask(payload OutreachRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// A run sends messages, so a failed run is never replayed automatically.
	return asynq.NewTask(TaskOutreachRun, data, asynq.MaxRetry(0), asynq.Unique(runUniqueTTL)), nil
}

func ParseOutreachRunPayload(task *asynq.Task) (OutreachRunPayload, error) {
	var payload OutreachRunPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutreachRunPayload{}, err
	}
	return payload, nil
}
