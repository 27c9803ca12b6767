// Package rabbitmq содержит вспомогательную функцию публикации сообщений в RabbitMQ.
package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует сообщения в фиксированный exchange с фиксированным
// routing key. Используется очередью недоставленных номеров.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
	key      string
}

// NewPublisher создает новый Publisher.
func NewPublisher(ch *amqp.Channel, exchange, key string) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		key:      key,
	}
}

// Publish публикует сообщение.
func (p *Publisher) Publish(message any) error {
	return PublishMessage(p.ch, p.exchange, p.key, message)
}
