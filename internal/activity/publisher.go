package activity

import (
	"github.com/rs/zerolog"

	"github.com/ummahconnect/community-backend/config"
)

// New builds the publisher selected by ACTIVITY_BROKER.
func New(cfg *config.Config, log zerolog.Logger) (Publisher, error) {
	switch cfg.ActivityBroker {
	case "kafka":
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("activity stream: kafka")
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "rabbitmq":
		p, err := NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		log.Info().Str("exchange", cfg.RabbitMQExchange).Msg("activity stream: rabbitmq")
		return p, nil
	default:
		log.Info().Msg("activity stream disabled")
		return Nop{}, nil
	}
}
