package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
	"social-publisher/infrastructure/logger"
)

// NewPubSub creates a Google Pub/Sub client. Progress events are mirrored to
// a topic so other dashboard services can follow publish runs.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type IProgressPubSub interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

type ProgressPubSub struct {
	PubSubClient *pubsub.Client
}

func NewProgressPubSub(pubSubClient *pubsub.Client) IProgressPubSub {
	return &ProgressPubSub{PubSubClient: pubSubClient}
}

func (p *ProgressPubSub) Publish(ctx context.Context, topicName string, payload []byte) (string, error) {
	topic := p.PubSubClient.Topic(topicName)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicName).Info("Topic doesn't exist - creating it")
		if _, err = p.PubSubClient.CreateTopic(ctx, topicName); err != nil {
			return "", err
		}
	}

	serverId, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}
	return serverId, nil
}
