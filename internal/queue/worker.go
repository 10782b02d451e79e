package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (j *Queue) HandleDispatchTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	slog.Debug("dispatch task fired", "tweet_id", payload.TweetID)

	return j.d.Run(ctx)
}
