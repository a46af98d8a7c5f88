package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"contactmanager/internal/contact"
	"contactmanager/internal/contact/handler"
	contactmetrics "contactmanager/internal/contact/metrics"
	"contactmanager/internal/contact/service"
	"contactmanager/internal/platform/config"
	"contactmanager/internal/platform/httpserver"
	"contactmanager/internal/platform/logger"
	"contactmanager/internal/platform/metrics"
	audit "contactmanager/pkg/platform/audit"
	"contactmanager/pkg/platform/audit/consumer"
	"contactmanager/pkg/platform/audit/publisher"
	"contactmanager/pkg/platform/audit/store/kafka"
	"contactmanager/pkg/platform/audit/store/memory"
	"contactmanager/pkg/platform/circuit"
	"contactmanager/pkg/platform/httputil"
	"contactmanager/pkg/platform/middleware/requesttime"
)

// main wires dependencies and runs the server until SIGINT or SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

type deps struct {
	router    http.Handler
	publisher *publisher.Publisher
	audit     *memory.InMemoryStore
	kafka     *kgo.Client
	replay    *consumer.Consumer
	replayCl  *kgo.Client
}

// close drains buffered audit events before the Kafka clients go away.
func (d *deps) close() {
	if d.publisher != nil {
		d.publisher.Close()
	}
	if d.replayCl != nil {
		d.replayCl.Close()
	}
	if d.kafka != nil {
		d.kafka.Close()
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	d, err := build(ctx, cfg, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer d.close()

	srv := httpserver.New(cfg.Addr, d.router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting contactmanager",
			"addr", cfg.Addr,
			"kafka_audit", cfg.Audit.KafkaEnabled(),
			"audit_replay", cfg.Audit.ReplayEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if d.replay != nil {
		g.Go(func() error {
			if err := d.replay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit replay: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// build assembles the store, service, audit pipeline and router.
func build(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*deps, error) {
	httpMetrics := metrics.NewWithRegistry(reg)
	contactMetrics := contactmetrics.NewWithRegistry(reg)

	d := &deps{audit: memory.NewInMemoryStore(memory.WithCapacity(cfg.Audit.Retain))}
	var sink audit.Store = d.audit
	if cfg.Audit.KafkaEnabled() {
		if err := dialAudit(ctx, cfg.Audit, log, d); err != nil {
			d.close()
			return nil, err
		}
		breaker := circuit.New("kafka-audit", circuit.WithCooldown(30*time.Second))
		kafkaSink := kafka.New(d.kafka, cfg.Audit.Topic,
			kafka.WithTimeout(cfg.Audit.Timeout),
			kafka.WithBreaker(breaker),
		)
		if d.replay != nil {
			// The replay consumer feeds the memory store from the topic.
			sink = kafkaSink
		} else {
			sink = audit.Tee(sink, kafkaSink)
		}
	}
	d.publisher = publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(cfg.Audit.Buffer),
		publisher.WithLogger(log),
		publisher.WithDrainTimeout(cfg.ShutdownTimeout),
	)

	store := contact.NewStore()
	svc := contact.NewService(store,
		service.WithLogger(log),
		service.WithMetrics(contactMetrics),
		service.WithAuditPublisher(d.publisher),
	)
	if cfg.SeedDemo {
		seeded, err := service.SeedDemo(ctx, svc)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("seed demo contacts: %w", err)
		}
		log.Info("seeded demo contacts", "count", len(seeded))
	}

	r := chi.NewRouter()
	r.Use(requesttime.Middleware)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	contact.NewHandler(svc, log, httpMetrics, handler.WithAuditReader(d.audit)).Register(r)
	d.router = r

	return d, nil
}

// dialAudit connects the audit producer, creates the topic and, when replay
// is enabled, a second client that reads the topic from its first offset.
// Clients created before a failure are left on d for the caller to close.
func dialAudit(ctx context.Context, cfg config.Audit, log *slog.Logger, d *deps) error {
	cl, err := kafka.Dial(cfg.Brokers, cfg.Topic, cfg.Timeout)
	if err != nil {
		return err
	}
	d.kafka = cl

	topicCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := kafka.EnsureTopic(topicCtx, cl, cfg.Topic, cfg.Partitions, cfg.Replicas); err != nil {
		return err
	}

	if !cfg.ReplayEnabled() {
		return nil
	}
	replayCl, err := kafka.Dial(cfg.Brokers, cfg.Topic, cfg.Timeout,
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return err
	}
	d.replayCl = replayCl
	d.replay = consumer.New(replayCl, d.audit, log)
	return nil
}
