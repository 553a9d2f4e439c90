package servicebus

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"social-publisher/infrastructure/logger"
)

// NewServiceBus creates an Azure Service Bus client using the default Azure
// credential chain. Used to forward publish progress to the agency's Azure
// side; absence is tolerated.
func NewServiceBus(_ context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, nil
	}
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	client, err := azservicebus.NewClient(namespace, credential, nil)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type IProgressServiceBus interface {
	SendMessage(message []byte) error
}

type ProgressServicebus struct {
	AzservicebusClient *azservicebus.Client
	Queue              string
}

func NewProgressServiceBus(azServiceBusClient *azservicebus.Client, queue string) IProgressServiceBus {
	if queue == "" {
		queue = "publish-progress"
	}
	return &ProgressServicebus{AzservicebusClient: azServiceBusClient, Queue: queue}
}

func (p *ProgressServicebus) SendMessage(message []byte) error {
	sender, err := p.AzservicebusClient.NewSender(p.Queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		err := sender.Close(ctx)
		if err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, context.Background())

	sbMessage := &azservicebus.Message{Body: message}
	if err := sender.SendMessage(context.Background(), sbMessage, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
