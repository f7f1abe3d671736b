package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	gcache "github.com/omgmanu/lemme-predict-program/internal/game-service/cache"
	ghttp "github.com/omgmanu/lemme-predict-program/internal/game-service/http"
	"github.com/omgmanu/lemme-predict-program/internal/game-service/producer"
	"github.com/omgmanu/lemme-predict-program/internal/game-service/repo"
	sharedcache "github.com/omgmanu/lemme-predict-program/internal/shared/cache"
	"github.com/omgmanu/lemme-predict-program/internal/shared/config"
	"github.com/omgmanu/lemme-predict-program/internal/shared/db"
	sharedkafka "github.com/omgmanu/lemme-predict-program/internal/shared/kafka"
	"github.com/omgmanu/lemme-predict-program/internal/shared/logger"
	"github.com/omgmanu/lemme-predict-program/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("game-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Identidade da autoridade do vault é obrigatória e imutável pelo processo
	if cfg.VaultAuthority == "" {
		log.Fatal("GAME_VAULT not set")
	}

	// Banco: Postgres em produção, sqlite embarcado em dev local
	var sqlDB *sql.DB
	switch cfg.StoreBackend {
	case "sqlite":
		sqlDB, err = db.ConnectSQLite(cfg.SQLitePath)
	default:
		sqlDB, err = db.ConnectPostgres(cfg.PostgresDSN)
	}
	if err != nil {
		log.Fatal("db connect", zap.Error(err), zap.String("backend", cfg.StoreBackend))
	}
	defer sqlDB.Close()

	store := repo.NewStore(sqlDB, cfg.VaultAuthority)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	if err := store.EnsureAccount(ctx, cfg.VaultAuthority); err != nil {
		log.Fatal("ensure vault account", zap.Error(err))
	}

	// Redis para cache de resultados liquidados
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()
	resultCache := gcache.New(rdb, 24*time.Hour)

	// Kafka writers para os eventos do ciclo de vida
	createdWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameCreated)
	defer createdWriter.Close()
	settledWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameSettled)
	defer settledWriter.Close()
	publ := producer.NewKafkaPublisher(createdWriter, settledWriter)

	// Métricas Prometheus
	started := prometheus.NewCounter(prometheus.CounterOpts{Name: "game_started_total", Help: "jogos criados"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "game_settled_total", Help: "jogos liquidados"})
	prometheus.MustRegister(started, settled)

	api := ghttp.NewServer(log, store, publ, resultCache, cfg.VaultAuthority)
	api.OnGameStarted = func() { started.Inc() }
	api.OnGameSettled = func() { settled.Inc() }

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	log.Info("game-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
