package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// RecalculationPublisher hands recalculation jobs to a Queue topic.
type RecalculationPublisher struct {
	Queue Queue
	Topic string
}

// PublishRecalculation encodes job as JSON and publishes it.
func (p *RecalculationPublisher) PublishRecalculation(ctx context.Context, job model.RecalculationJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode recalculation job %s: %w", job.ID, err)
	}
	return p.Queue.Publish(p.Topic, body)
}

// StartRecalculationSubscriber decodes jobs from topic and passes them to
// process. Undecodable messages are dropped.
func StartRecalculationSubscriber(q Queue, topic string, logger *zap.Logger, process func(context.Context, model.RecalculationJob) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return q.Subscribe(topic, func(payload []byte) error {
		var job model.RecalculationJob
		if err := json.Unmarshal(payload, &job); err != nil {
			logger.Warn("invalid recalculation job", zap.Error(err))
			return nil
		}
		logger.Info("processing recalculation job", zap.String("job_id", job.ID), zap.String("record_id", job.RecordID))
		return process(context.Background(), job)
	})
}
