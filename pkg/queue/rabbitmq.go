package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"notihub/pkg/config"
	"notihub/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationQueueName = "notification_queue"
	NotificationExchange  = "notifications"
	NotificationRouteKey  = "notify"
)

// NotificationTask is the message sibling services publish to have a
// notification created and pushed. Decoded here at the queue boundary
// rather than passed around as a raw map.
type NotificationTask struct {
	UserID    string            `json:"user_id"`
	TenantID  string            `json:"tenant_id,omitempty"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Tipo      string            `json:"tipo"`
	Dados     map[string]string `json:"dados,omitempty"`
	ActionURL string            `json:"action_url,omitempty"`
	Priority  int               `json:"priority,omitempty"`
}

func (t *NotificationTask) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("task missing user_id")
	}
	if t.Title == "" {
		return fmt.Errorf("task missing title")
	}
	if t.Message == "" {
		return fmt.Errorf("task missing message")
	}
	return nil
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		NotificationExchange, // name
		"direct",             // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		NotificationQueueName, // name
		true,                  // durable
		false,                 // delete when unused
		false,                 // exclusive
		false,                 // no-wait
		amqp.Table{
			"x-max-priority": 10, // Enable priority queue (0-10)
		},
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		NotificationQueueName,
		NotificationRouteKey,
		NotificationExchange,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishNotificationTask publishes a notification task with priority.
func (c *Client) PublishNotificationTask(task *NotificationTask) error {
	if err := task.Validate(); err != nil {
		return err
	}

	priority := task.Priority
	if priority < 0 {
		priority = 0
	}
	if priority > 10 {
		priority = 10
	}

	taskJSON, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	err = c.channel.Publish(
		NotificationExchange,
		NotificationRouteKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         taskJSON,
			Priority:     uint8(priority),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish task to exchange=%s: %v", NotificationExchange, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published notification task for user %s", task.UserID)
	return nil
}

// ConsumeNotificationTasks consumes tasks from the queue. Malformed
// messages are rejected without requeue; handler errors requeue once.
func (c *Client) ConsumeNotificationTasks(handler func(task *NotificationTask) error) error {
	msgs, err := c.channel.Consume(
		NotificationQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			var task NotificationTask
			if err := json.Unmarshal(msg.Body, &task); err != nil {
				c.logger.Error("[RABBITMQ] Failed to unmarshal task: %v", err)
				msg.Nack(false, false)
				continue
			}

			if err := handler(&task); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed for user %s: %v", task.UserID, err)
				msg.Nack(false, !msg.Redelivered)
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}

func (c *Client) GetQueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(NotificationQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}
	return queue.Messages, nil
}
