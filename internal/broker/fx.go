package broker

import (
	"context"

	"github.com/staffhubhq/staffhub/internal/config"
	"github.com/staffhubhq/staffhub/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*Client, error) {
	client, err := Dial(cfg.AMQPURL)
	if err != nil {
		return nil, err
	}

	if err := Declare(client.Channel(), Topology{
		Exchange:        cfg.AMQPExchange,
		Queue:           cfg.AMQPQueue,
		DeadLetterQueue: cfg.AMQPDeadLetterQueue,
	}); err != nil {
		_ = client.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return client.Close()
		},
	})

	log.Named("broker").Info("connected",
		zap.String("exchange", cfg.AMQPExchange),
		zap.String("queue", cfg.AMQPQueue),
	)
	return client, nil
}

func providePublisher(client *Client, cfg config.Config, log *zap.Logger, met *metrics.Metrics) Publisher {
	return NewPublisher(client.Channel(), cfg.AMQPExchange, log, met)
}

func provideConsumer(client *Client, cfg config.Config, applier SubscriptionApplier, gdb *gorm.DB, log *zap.Logger, met *metrics.Metrics) (*Consumer, error) {
	var dedupe *DedupeStore
	if cfg.ConsumerDedupeMode {
		var err error
		dedupe, err = NewDedupeStore(gdb)
		if err != nil {
			return nil, err
		}
	}

	return NewConsumer(client.Channel(), ConsumerConfig{
		Queue:           cfg.AMQPQueue,
		MaxRedelivery:   cfg.AMQPMaxRedelivery,
		DeadLetterQueue: cfg.AMQPDeadLetterQueue,
	}, applier, dedupe, log, met), nil
}

func runConsumer(lc fx.Lifecycle, consumer *Consumer, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
					log.Named("broker").Error("consumer stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

var Module = fx.Module("broker",
	fx.Provide(provideClient),
	fx.Provide(providePublisher),
	fx.Provide(provideConsumer),
	fx.Invoke(runConsumer),
)
