package service

import (
	"context"
	"fmt"

	"iwled/internal/config"
	"iwled/internal/consumer"
	"iwled/internal/led"
	mqttcommon "iwled/internal/mqtt"
	"iwled/internal/publisher"
	rediscommon "iwled/internal/redis"
	"iwled/internal/station"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MonitorService wires the station source, LEDs and status sinks together.
type MonitorService struct {
	config     *config.Config
	logger     *zap.Logger
	source     station.Source
	mqttClient *mqttcommon.Client
	redis      *redis.Client
	consumer   *consumer.StationConsumer
}

// NewMonitorService loads the monitoring config at configPath and opens nl80211.
// Any error here is a startup error.
func NewMonitorService(cfg *config.Config, configPath string, logger *zap.Logger) (*MonitorService, error) {
	source, err := station.NewNL80211Source()
	if err != nil {
		return nil, err
	}

	s, err := newMonitorService(cfg, configPath, source, logger)
	if err != nil {
		source.Close()
		return nil, err
	}
	return s, nil
}

func newMonitorService(cfg *config.Config, configPath string, source station.Source, logger *zap.Logger) (*MonitorService, error) {
	// 1. monitoring rules
	global, clients, err := config.Load(configPath, config.SysfsResolver(cfg.LEDClassDir))
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded config",
		zap.String("path", configPath),
		zap.Int("client_count", len(clients)),
		zap.Duration("cycle_interval", global.CycleInterval),
	)

	s := &MonitorService{
		config: cfg,
		logger: logger,
		source: source,
	}

	// 2. optional status sinks
	var sinks publisher.Multi

	if cfg.MQTT.Broker != "" {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			return nil, err
		}
		s.mqttClient = mqttClient
		sinks = append(sinks, publisher.NewMQTTSink(mqttClient, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS, logger))
		logger.Info("MQTT status sink enabled", zap.String("broker", cfg.MQTT.Broker))
	}

	if cfg.Redis.Addr != "" {
		redisClient := rediscommon.NewRedisClient(&cfg.Redis)
		if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
			redisClient.Close()
			s.closeSinks()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redis = redisClient
		ttl := 3 * global.CycleInterval
		sinks = append(sinks, publisher.NewRedisSink(publisher.NewRedisKVStore(redisClient), cfg.Redis.KeyPrefix, ttl, logger))
		logger.Info("Redis status sink enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var sink publisher.Sink
	switch len(sinks) {
	case 0:
	case 1:
		sink = sinks[0]
	default:
		sink = sinks
	}

	// 3. cycle runner
	s.consumer = consumer.NewStationConsumer(
		global,
		clients,
		station.NewBuilder(source, logger),
		led.NewActuator(logger),
		sink,
		logger,
	)

	return s, nil
}

// Start blocks running cycles until ctx is cancelled.
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info("Starting monitor service")
	return s.consumer.Start(ctx)
}

// RunOnce runs a single cycle.
func (s *MonitorService) RunOnce(ctx context.Context) (consumer.CycleReport, error) {
	return s.consumer.RunCycle(ctx)
}

func (s *MonitorService) Stop() error {
	s.logger.Info("Stopping monitor service")

	s.closeSinks()

	if c, ok := s.source.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			s.logger.Error("Failed to close station source", zap.Error(err))
		}
	}

	return nil
}

func (s *MonitorService) closeSinks() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
		s.mqttClient = nil
	}

	if s.redis != nil {
		if err := rediscommon.Close(s.redis); err != nil {
			s.logger.Error("Failed to close redis", zap.Error(err))
		}
		s.redis = nil
	}
}
