package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
	"github.com/imrishuroy/go-idempotent-payflow/internal/config"
	appevents "github.com/imrishuroy/go-idempotent-payflow/internal/events"
	"github.com/imrishuroy/go-idempotent-payflow/internal/logging"
	"github.com/imrishuroy/go-idempotent-payflow/internal/payments"
)

const functionName = "payments-worker"

// localBody is the ORDER_PLACED message simulated when RUN_LOCAL=true and
// LOCAL_SQS_BODY is empty.
const localBody = `{"subject_id":"local-order-1","event_name":"ORDER_PLACED","event_id":"local-event-1",` +
	`"event_data":{"order_id":"local-order-1","sku":"SKU-LOCAL","units":1,"price":10,"user_id":"local-user"}}`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(functionName, cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx, cfg.AWSRegion, cfg.AWSEndpointOverride)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	eventStore := appevents.NewStore(clients.DynamoDB, cfg.EventStoreTable)
	var forwarder *appevents.Forwarder
	if cfg.PaymentEventsQueueURL != "" {
		forwarder = appevents.NewForwarder(eventStore, aws.NewPublisher(clients.SQS, cfg.PaymentEventsQueueURL), logger)
	} else {
		forwarder = appevents.NewForwarder(eventStore, nil, logger)
	}

	svc := payments.NewService(
		payments.NewStore(clients.DynamoDB, cfg.PaymentsTable),
		payments.NewFakeGateway(cfg.GatewayRejectAbove, cfg.GatewayFailureRate),
		forwarder,
		logger,
	)
	processor := NewProcessor(svc, aws.NewMetricsPublisher(clients.CloudWatch, cfg.MetricsNamespace), logger, functionName)

	if cfg.RunLocal {
		body := cfg.LocalSQSBody
		if body == "" {
			body = localBody
		}
		resp, _ := processor.Handle(ctx, events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-message-1", Body: body}},
		})
		logger.Info("local batch done", zap.Int("batch_item_failures", len(resp.BatchItemFailures)))
		return
	}

	lambda.Start(processor.Handle)
}
