package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "masterpower2mqtt/internal/adapter/actor"
	"masterpower2mqtt/internal/config"
	"masterpower2mqtt/internal/core/actor"
	"masterpower2mqtt/internal/core/domain"
	"masterpower2mqtt/internal/server"
	"masterpower2mqtt/internal/util/actorutil"
	"masterpower2mqtt/pkg/masterpower"

	pactor "github.com/asynkron/protoactor-go/actor"
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
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, inverterActorProvider(cfg, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		os.Exit(1)
	}

	server := server.NewServer(*cfg, ctx, pid)
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

	// alias PORT => MASTERPOWER_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("MASTERPOWER_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("masterpower")
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

	// check and fix base topic
	topic, err := config.CheckMQTTTopic(cfg.MQTT.Topic)
	if err != nil {
		return nil, err
	}
	cfg.MQTT.Topic = topic

	// check and fix homeassistant discovery topic
	if cfg.MQTT.Discovery.Enable {
		prefix, err := config.CheckMQTTTopic(cfg.MQTT.Discovery.Prefix)
		if err != nil {
			return nil, err
		}
		cfg.MQTT.Discovery.Prefix = prefix
	}

	// check bounds
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func inverterActorProvider(cfg *config.Config, logger *zap.Logger) actor.InverterActorProvider {
	return func() *adactor.InverterActor {
		inv := masterpower.CreateSerialInverter(cfg.Inverter.Path, cfg.Inverter.BaudRate, 5*time.Second, logger)
		return adactor.NewInverterActor(inv, 10*time.Second, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func() *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("debug", false)
	viper.SetDefault("mode", config.ModeDefault)
	viper.SetDefault("inverter_count", 1)
	viper.SetDefault("inner_iterations", 2)
	viper.SetDefault("outer_delay", 30)
	viper.SetDefault("inner_delay", 5)
	viper.SetDefault("error_delay", 60)
	viper.SetDefault("inverter.baud_rate", 2400)
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.topic", "masterpower")
	viper.SetDefault("mqtt.discovery.enable", false)
	viper.SetDefault("mqtt.discovery.prefix", "homeassistant")
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
