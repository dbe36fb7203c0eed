package app

import (
	"context"
	"strings"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/gramseva/internal/messaging/kafka"
)

const notifyMaxRetries = 3

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	brokers = strings.TrimSpace(brokers)
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// initBookingNotifier запускает consumer-группу событий заявок. Уведомления
// операторам пока ограничиваются структурированным логом; retry и DLQ
// обрабатываются внутри consumer. Возвращает nil, nil если Kafka не настроен.
func initBookingNotifier(ctx context.Context, cfg Config, producer *kafka.Producer, logger *log.Entry) (<-chan struct{}, error) {
	brokers := strings.TrimSpace(cfg.KafkaBrokers)
	if brokers == "" || producer == nil {
		return nil, nil
	}

	notifyLogger := logger.WithField("component", "booking-notifier")
	consumer, err := kafka.NewConsumerWithDLQ(
		strings.Split(brokers, ","),
		cfg.KafkaConsumerGroup,
		[]string{kafka.TopicBookingEvents},
		notifyBookingEvent(notifyLogger),
		producer,
		notifyMaxRetries,
	)
	if err != nil {
		return nil, err
	}

	if err := consumer.Start(ctx); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		if err := consumer.Stop(); err != nil {
			notifyLogger.WithError(err).Warn("failed to stop booking events consumer")
		}
	}()
	return done, nil
}

// notifyBookingEvent строит обработчик событий заявок для уведомлений.
func notifyBookingEvent(logger *log.Entry) kafka.MessageHandler {
	return func(_ context.Context, message *sarama.ConsumerMessage) error {
		event, err := kafka.ParseBookingEvent(message)
		if err != nil {
			return err
		}

		logger.WithFields(log.Fields{
			"booking_id": event.BookingID,
			"user_id":    event.UserID,
			"event_type": event.EventType,
			"status":     event.Status,
		}).Info("booking notification")
		return nil
	}
}

// closeKafkaProducer закрывает Kafka producer если он не nil.
func closeKafkaProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
