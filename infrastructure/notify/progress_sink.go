package notify

import (
	"context"
	"encoding/json"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/pubsub"
	"social-publisher/infrastructure/realtime"
	"social-publisher/infrastructure/servicebus"
)

const progressTopic = "publish-progress"

// ProgressSink fans publish progress out to the SSE hub and, when configured,
// mirrors it to Pub/Sub and Service Bus. Every path is fire-and-forget: a
// broken sink never fails the publish it reports on.
type ProgressSink struct {
	hub        *realtime.Hub
	pubSub     pubsub.IProgressPubSub
	serviceBus servicebus.IProgressServiceBus
}

func NewProgressSink(hub *realtime.Hub) *ProgressSink {
	return &ProgressSink{hub: hub}
}

func (s *ProgressSink) WithPubSub(p pubsub.IProgressPubSub) *ProgressSink {
	s.pubSub = p
	return s
}

func (s *ProgressSink) WithServiceBus(sb servicebus.IProgressServiceBus) *ProgressSink {
	s.serviceBus = sb
	return s
}

var _ repository.IProgressSink = (*ProgressSink)(nil)

func (s *ProgressSink) UpdateProgress(job *model.PublishJob, stage string, percent int) {
	s.dispatch(job, realtime.ProgressEvent{
		Type:     "publish_progress",
		JobID:    job.ID,
		Platform: job.Platform,
		Stage:    stage,
		Percent:  percent,
	})
}

func (s *ProgressSink) CompleteProgress(job *model.PublishJob, mediaID, url string) {
	s.dispatch(job, realtime.ProgressEvent{
		Type:     "publish_complete",
		JobID:    job.ID,
		Platform: job.Platform,
		Stage:    "done",
		Percent:  100,
		MediaID:  &mediaID,
		URL:      &url,
	})
}

func (s *ProgressSink) ErrorProgress(job *model.PublishJob, message string) {
	s.dispatch(job, realtime.ProgressEvent{
		Type:     "publish_error",
		JobID:    job.ID,
		Platform: job.Platform,
		Stage:    "failed",
		Percent:  job.Percent,
		Error:    &message,
	})
}

func (s *ProgressSink) dispatch(job *model.PublishJob, evt realtime.ProgressEvent) {
	if job == nil {
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(job.UserID, evt)
	}
	if s.pubSub == nil && s.serviceBus == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while marshaling progress event")
		return
	}
	if s.pubSub != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := s.pubSub.Publish(ctx, progressTopic, payload); err != nil {
				logger.GetLogger().WithField("error", err).Warn("Error while publishing progress to Pub/Sub")
			}
		}()
	}
	if s.serviceBus != nil {
		go func() {
			if err := s.serviceBus.SendMessage(payload); err != nil {
				logger.GetLogger().WithField("error", err).Warn("Error while sending progress to Service Bus")
			}
		}()
	}
}
