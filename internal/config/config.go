package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	AWSRegion           string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointOverride string `env:"AWS_ENDPOINT_OVERRIDE"`

	OrdersTable      string `env:"ORDERS_TABLE" envDefault:"orders"`
	OrdersListIndex  string `env:"ORDERS_LIST_INDEX" envDefault:"orders-by-created-at"`
	PaymentsTable    string `env:"PAYMENTS_TABLE" envDefault:"payments"`
	EventStoreTable  string `env:"EVENT_STORE_TABLE" envDefault:"event-store"`
	PaymentsQueueURL string `env:"PAYMENTS_QUEUE_URL"`
	// Consumers of accepted/rejected payment events.
	PaymentEventsQueueURL string `env:"PAYMENT_EVENTS_QUEUE_URL"`

	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"OrderPayFlow"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`
	RunLocal  bool   `env:"RUN_LOCAL" envDefault:"false"`
	LocalAddr string `env:"LOCAL_ADDR" envDefault:":8080"`

	// Worker only: message body simulated when RunLocal is set.
	LocalSQSBody string `env:"LOCAL_SQS_BODY"`

	GatewayRejectAbove float64 `env:"PAYMENT_GATEWAY_REJECT_ABOVE" envDefault:"10000"`
	GatewayFailureRate float64 `env:"PAYMENT_GATEWAY_FAILURE_RATE" envDefault:"0"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.GatewayFailureRate < 0 || cfg.GatewayFailureRate > 1 {
		return nil, fmt.Errorf("config.Load: PAYMENT_GATEWAY_FAILURE_RATE must be within [0,1], got %v", cfg.GatewayFailureRate)
	}
	return &cfg, nil
}
