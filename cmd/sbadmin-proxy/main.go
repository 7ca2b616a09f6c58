package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v7"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/queueworks/sb-admin-client/pkg/admin"
	"github.com/queueworks/sb-admin-client/pkg/client"
	"github.com/queueworks/sb-admin-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type config struct {
	Endpoint   string `env:"SB_ENDPOINT,required"`
	SASToken   string `env:"SB_SAS_TOKEN,required"`
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Port       string `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" envDefault:"false"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.PrettyLogs,
		Output: os.Stderr,
	})

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")

	mgmt, err := client.New(client.DefaultConfig(
		redisClient, cfg.Endpoint, client.StaticTokenProvider(cfg.SASToken)))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create management client")
	}

	adminClient := admin.NewClient(mgmt)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/entities/queues", listQueuesHandler(adminClient))
	mux.HandleFunc("/entities/topics", listTopicsHandler(adminClient))

	addr := ":" + cfg.Port
	log.Info().
		Str("addr", addr).
		Str("endpoint", cfg.Endpoint).
		Msg("Starting sbadmin proxy")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func listQueuesHandler(adminClient *admin.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		var queues []admin.QueueProperties
		for queue, err := range adminClient.Queues().All(ctx) {
			if err != nil {
				http.Error(w, fmt.Sprintf("list queues: %v", err), http.StatusBadGateway)
				return
			}
			queues = append(queues, queue)
		}

		writeJSON(w, queues)
	}
}

func listTopicsHandler(adminClient *admin.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		var topics []admin.TopicProperties
		for topic, err := range adminClient.Topics().All(ctx) {
			if err != nil {
				http.Error(w, fmt.Sprintf("list topics: %v", err), http.StatusBadGateway)
				return
			}
			topics = append(topics, topic)
		}

		writeJSON(w, topics)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
