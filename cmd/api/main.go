package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
	"github.com/imrishuroy/go-idempotent-payflow/internal/config"
	appevents "github.com/imrishuroy/go-idempotent-payflow/internal/events"
	"github.com/imrishuroy/go-idempotent-payflow/internal/handlers"
	"github.com/imrishuroy/go-idempotent-payflow/internal/logging"
	"github.com/imrishuroy/go-idempotent-payflow/internal/orders"
	"github.com/imrishuroy/go-idempotent-payflow/internal/payments"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New("orders-api", cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion, cfg.AWSEndpointOverride)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	eventStore := appevents.NewStore(clients.DynamoDB, cfg.EventStoreTable)
	var forwarder *appevents.Forwarder
	if cfg.PaymentsQueueURL != "" {
		forwarder = appevents.NewForwarder(eventStore, aws.NewPublisher(clients.SQS, cfg.PaymentsQueueURL), logger)
	} else {
		logger.Warn("PAYMENTS_QUEUE_URL not set, placed orders are recorded but not queued")
		forwarder = appevents.NewForwarder(eventStore, nil, logger)
	}

	ordersSvc := orders.NewService(orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.OrdersListIndex), forwarder, logger)
	// The API only reads payments, so no gateway or forwarder is wired.
	paymentsSvc := payments.NewService(payments.NewStore(clients.DynamoDB, cfg.PaymentsTable), nil, nil, logger)

	r := handlers.NewRouter(logger, ordersSvc, paymentsSvc)

	if cfg.RunLocal {
		logger.Info("running local server", zap.String("addr", cfg.LocalAddr))
		if err := r.Run(cfg.LocalAddr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
