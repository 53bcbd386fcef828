package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// Rabbit держит соединение с RabbitMQ и объявляет очереди.
type Rabbit struct {
	conn *amqp.Connection
	log  zerolog.Logger
}

// Dial подключается к RabbitMQ.
func Dial(url string, logger zerolog.Logger) (*Rabbit, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	return &Rabbit{conn: conn, log: logger}, nil
}

// Close закрывает соединение.
func (r *Rabbit) Close() error {
	return r.conn.Close()
}

func (r *Rabbit) declare(queue string) (*amqp.Channel, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare %s: %w", queue, err)
	}
	return ch, nil
}

func (r *Rabbit) publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	ch, err := r.declare(queue)
	if err != nil {
		return err
	}
	defer ch.Close()

	start := time.Now()
	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", queue, start, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	return nil
}

// consume блокирующе читает очередь до отмены контекста.
// Ошибка разбора сообщения логируется, сообщение подтверждается и пропускается.
func (r *Rabbit) consume(ctx context.Context, queue string, handle func(body []byte) error) error {
	ch, err := r.declare(queue)
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("qos %s: %w", queue, err)
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("consume %s: канал доставки закрыт", queue)
			}
			if err := handle(d.Body); err != nil {
				r.log.Error().Err(err).Str("queue", queue).Msg("queue: сообщение пропущено")
			}
			_ = d.Ack(false)
		}
	}
}

// ReminderQueue реализует domain.ReminderQueue поверх AMQP.
type ReminderQueue struct {
	rabbit *Rabbit
	queue  string
}

// NewReminderQueue создаёт очередь напоминаний.
func NewReminderQueue(rabbit *Rabbit, queue string) *ReminderQueue {
	return &ReminderQueue{rabbit: rabbit, queue: queue}
}

// Publish публикует сработавшее напоминание.
func (q *ReminderQueue) Publish(ctx context.Context, push domain.ReminderPush) error {
	return q.rabbit.publish(ctx, q.queue, push)
}

// Consume блокирующе обрабатывает напоминания до отмены контекста.
func (q *ReminderQueue) Consume(ctx context.Context, handle func(push domain.ReminderPush)) error {
	return q.rabbit.consume(ctx, q.queue, func(body []byte) error {
		var push domain.ReminderPush
		if err := json.Unmarshal(body, &push); err != nil {
			return fmt.Errorf("разбор напоминания: %w", err)
		}
		handle(push)
		return nil
	})
}

// TranscriptQueue реализует domain.TranscriptQueue поверх AMQP.
type TranscriptQueue struct {
	rabbit *Rabbit
	queue  string
}

// NewTranscriptQueue создаёт очередь задач расшифровки.
func NewTranscriptQueue(rabbit *Rabbit, queue string) *TranscriptQueue {
	return &TranscriptQueue{rabbit: rabbit, queue: queue}
}

// Publish публикует задачу расшифровки.
func (q *TranscriptQueue) Publish(ctx context.Context, job domain.TranscriptJob) error {
	return q.rabbit.publish(ctx, q.queue, job)
}

// Consume блокирующе обрабатывает задачи до отмены контекста.
func (q *TranscriptQueue) Consume(ctx context.Context, handle func(job domain.TranscriptJob)) error {
	return q.rabbit.consume(ctx, q.queue, func(body []byte) error {
		var job domain.TranscriptJob
		if err := json.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("разбор задачи расшифровки: %w", err)
		}
		handle(job)
		return nil
	})
}
