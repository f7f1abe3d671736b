package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/omgmanu/lemme-predict-program/internal/settlement-worker/consumer"
	"github.com/omgmanu/lemme-predict-program/internal/settlement-worker/pubsub"
	sharedcache "github.com/omgmanu/lemme-predict-program/internal/shared/cache"
	"github.com/omgmanu/lemme-predict-program/internal/shared/config"
	sharedkafka "github.com/omgmanu/lemme-predict-program/internal/shared/kafka"
	"github.com/omgmanu/lemme-predict-program/internal/shared/logger"
	"github.com/omgmanu/lemme-predict-program/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer group próprio do worker sobre o tópico de liquidações
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicGameSettled, "settlement-worker")
	defer reader.Close()

	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_messages_consumed_total", Help: "mensagens consumidas"})
	broadcast := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_broadcasts_total", Help: "broadcasts publicados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, broadcast, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Broadcaster: broadcaster,
		Channel:     cfg.RedisPubSubChannel,
		OnConsumed:  func() { consumed.Inc() },
		OnBroadcast: func() { broadcast.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-worker started")
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
