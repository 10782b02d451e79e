package queue

import (
	"github.com/gritcult/twitter-scheduler/internal/dispatcher"
)

type Queue struct {
	d *dispatcher.Dispatcher
}

func NewQueue(d *dispatcher.Dispatcher) *Queue {
	return &Queue{d: d}
}

const TaskTypeDispatch = "dispatch:cycle"

// DispatchPayload carries the tweet whose scheduled time triggered the task.
// The dispatcher still scans for everything due, so a task firing late or
// twice is harmless.
type DispatchPayload struct {
	TweetID int64 `json:"tweet_id"`
}
