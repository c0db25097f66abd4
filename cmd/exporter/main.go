package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "solix2prom/internal/adapter/actor"
	"solix2prom/internal/adapter/upstream"
	"solix2prom/internal/config"
	"solix2prom/internal/core/actor"
	"solix2prom/internal/core/measure"
	"solix2prom/internal/core/normalize"
	"solix2prom/internal/core/snapshot"
	"solix2prom/internal/server"
	"solix2prom/internal/util/actorutil"
	"solix2prom/pkg/solixcloud"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)
	slog.Info("solix2prom", "version", versioninfo.Short())

	// every name the normalizers can emit must be registered
	if err := measure.CheckRegistered(normalize.MeasurementNames()); err != nil {
		slog.Error("measurement registry check failed", "error", err)
		return
	}

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	store := snapshot.NewStore()

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterActor(*cfg, store, cloudActorProvider(cfg, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid, store, logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => SOLIX2PROM_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SOLIX2PROM_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("solix2prom")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	if cfg.Upstream.Username == "" || cfg.Upstream.Password == "" {
		return nil, errors.New("config params upstream.username and upstream.password are required")
	}

	// check and fix base topic
	if cfg.MQTT.Enable {
		baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
		if err != nil {
			return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
		}
		cfg.MQTT.BaseTopic = baseTopic
	}

	// check bounds
	if cfg.Poll.IntervalSeconds < 10 {
		return nil, errors.New("config param poll.interval_seconds should be >= 10")
	}
	if cfg.Poll.FetchTimeoutSeconds < 1 {
		return nil, errors.New("config param poll.fetch_timeout_seconds should be >= 1")
	}
	if cfg.Poll.BackoffCapSeconds < cfg.Poll.IntervalSeconds {
		return nil, errors.New("config param poll.backoff_cap_seconds should be >= poll.interval_seconds")
	}

	return &cfg, nil
}

func cloudActorProvider(cfg *config.Config, logger *zap.Logger) actor.CloudActorProvider {
	client := solixcloud.NewClient(solixcloud.Credentials{
		Username: cfg.Upstream.Username,
		Password: cfg.Upstream.Password,
		Country:  cfg.Upstream.Country,
	}, logger)
	return func() *adactor.CloudActor {
		return adactor.NewCloudActor(upstream.NewSolixUpstream(client), cfg.Poll.FetchTimeout(), logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("upstream.country", "EU")
	viper.SetDefault("poll.interval_seconds", 30)
	viper.SetDefault("poll.fetch_timeout_seconds", 20)
	viper.SetDefault("poll.backoff_cap_seconds", 300)
	viper.SetDefault("poll.grace_cycles", 3)
	viper.SetDefault("mqtt.enable", false)
	viper.SetDefault("mqtt.base_topic", "solix2prom")
	viper.SetDefault("port", 9123)
}

func safePrintConfig(cfg config.Config) {
	cfg.Upstream.Username = "*redacted*"
	cfg.Upstream.Password = "*redacted*"
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
