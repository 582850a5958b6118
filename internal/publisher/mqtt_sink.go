package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"iwled/internal/models"

	"go.uber.org/zap"
)

// MessagePublisher is the publishing side of an MQTT client.
type MessagePublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTSink publishes one retained message per client to <prefix>/<client>/state.
type MQTTSink struct {
	client MessagePublisher
	prefix string
	qos    byte
	logger *zap.Logger
}

func NewMQTTSink(client MessagePublisher, prefix string, qos byte, logger *zap.Logger) *MQTTSink {
	return &MQTTSink{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		qos:    qos,
		logger: logger,
	}
}

func (s *MQTTSink) Name() string {
	return "mqtt"
}

// Topic returns the state topic for a client section name.
func (s *MQTTSink) Topic(client string) string {
	// wildcards and separators are not allowed inside a topic level
	level := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(client)
	return fmt.Sprintf("%s/%s/state", s.prefix, level)
}

func (s *MQTTSink) Publish(ctx context.Context, results []models.EvaluationResult) error {
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal state for %s: %w", r.Client, err)
		}

		topic := s.Topic(r.Client)
		if err := s.client.Publish(topic, s.qos, true, payload); err != nil {
			return err
		}

		s.logger.Debug("Published client state",
			zap.String("topic", topic),
			zap.String("state", string(r.State)),
		)
	}
	return nil
}
