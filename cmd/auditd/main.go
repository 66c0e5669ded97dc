package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	"audittrail/internal/platform/config"
	"audittrail/internal/platform/httpserver"
	"audittrail/internal/platform/logger"
	platformredis "audittrail/internal/platform/redis"
	"audittrail/pkg/audit"
	"audittrail/pkg/audit/chain"
	"audittrail/pkg/audit/classify"
	"audittrail/pkg/audit/coordinator"
	"audittrail/pkg/audit/metrics"
	"audittrail/pkg/audit/persist"
	kafkastore "audittrail/pkg/audit/store/kafka"
	"audittrail/pkg/audit/store/memory"
	"audittrail/pkg/audit/store/postgres"
	redisstore "audittrail/pkg/audit/store/redis"
	"audittrail/pkg/tracking"
)

// product is the sample entity the demo cycle mutates.
type product struct {
	ID   int64
	Name string
	Qty  int
}

func productDescriptor() tracking.Descriptor {
	return tracking.Descriptor{
		Kind: "products",
		Fields: []tracking.FieldDescriptor{
			{
				Name: "id", Key: true, Auto: true,
				Get: func(e any) any { return e.(*product).ID },
				Set: func(e any, v any) { e.(*product).ID = v.(int64) },
			},
			{
				Name: "name",
				Get:  func(e any) any { return e.(*product).Name },
			},
			{
				Name: "qty",
				Get:  func(e any) any { return e.(*product).Qty },
			},
		},
	}
}

// main wires sinks, runs a demo save cycle, and serves health and metrics.
// The audit capture itself is a library; this daemon exists to exercise the
// wiring end to end.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var sinks []audit.Store
	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Error("open database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("migrate audit schema", "err", err)
			os.Exit(1)
		}
		sinks = append(sinks, postgres.New(db))
	} else {
		sinks = append(sinks, memory.New())
	}
	redisClient, err := platformredis.New(ctx, cfg.RedisAddr)
	if err != nil {
		log.Error("connect redis", "err", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sinks = append(sinks, redisstore.New(redisClient.Client, redisstore.WithStream(cfg.RedisStream)))
	}
	if len(cfg.KafkaBrokers) > 0 {
		client, err := kgo.NewClient(kgo.SeedBrokers(cfg.KafkaBrokers...))
		if err != nil {
			log.Error("connect kafka", "err", err)
			os.Exit(1)
		}
		defer client.Close()
		topic := cfg.KafkaTopic
		if topic == "" {
			topic = kafkastore.DefaultTopic
		}
		if err := kafkastore.EnsureTopic(ctx, client, topic, 3, 1); err != nil {
			log.Error("ensure kafka topic", "err", err)
			os.Exit(1)
		}
		sinks = append(sinks, kafkastore.New(client, kafkastore.WithTopic(topic)))
	}
	store := chain.New(audit.NewFanout(sinks...))

	m := metrics.New()
	reg := tracking.NewRegistry()
	if err := reg.Register(productDescriptor()); err != nil {
		log.Error("register descriptor", "err", err)
		os.Exit(1)
	}

	session := tracking.NewSession(reg, tracking.NewMemoryEngine("id"))
	coord := coordinator.New(session,
		persist.New(store, persist.WithLogger(log)),
		coordinator.WithClassifier(classify.New(
			classify.WithSkipKinds(postgres.RecordKind),
			classify.WithLogger(log),
		)),
		coordinator.WithMetrics(m),
		coordinator.WithLogger(log),
	)

	if err := demoCycle(ctx, session, coord); err != nil {
		log.Error("demo cycle", "err", err)
		os.Exit(1)
	}
	log.Info("demo cycle complete", "chain_head", store.Head())

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting auditd", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		os.Exit(1)
	}
}

// demoCycle creates, updates, and deletes one product so each operation
// kind shows up in the audit trail.
func demoCycle(ctx context.Context, session *tracking.Session, coord *coordinator.Coordinator) error {
	p := &product{Name: "widget", Qty: 5}
	if err := session.Add("products", p); err != nil {
		return err
	}
	if _, err := coord.Save(ctx, "auditd-demo"); err != nil {
		return err
	}

	p.Qty = 7
	if _, err := coord.Save(ctx, "auditd-demo"); err != nil {
		return err
	}

	if err := session.Remove("products", p); err != nil {
		return err
	}
	_, err := coord.Save(ctx, "auditd-demo")
	return err
}
