package queue

// consumer.go runs the background consumer that listens to the
// famlink.activity queue and appends structured lines to
// logs/activity.log.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartActivityConsumer connects to RabbitMQ, declares the activity
// queue (durable), and starts consuming messages. Each message is
// appended to logs/activity.log in a single-line, human-friendly
// format. The function runs a reconnect loop with capped backoff and
// keeps running across broker restarts; processing errors are logged
// and the offending message rejected so the server continues operating.
func StartActivityConsumer() error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("activity-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("activity-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("activity-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(ActivityQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ActivityQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("activity-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "activity.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// formatLine renders one event as a single log line.
func formatLine(ev ActivityEvent) string {
	ts := ev.OccurredAt
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", ts, ev.Type)
	switch ev.Type {
	case TypeUserRegistered:
		fmt.Fprintf(&b, " user=%s username=%q", ev.UserID, ev.Username)
	case TypeMessagePosted:
		fmt.Fprintf(&b, " group=%s message=%s sender=%q", ev.GroupID, ev.MessageID, ev.SenderName)
	case TypeGroupDissolved:
		fmt.Fprintf(&b, " group=%s name=%q", ev.GroupID, ev.GroupName)
	default:
		fmt.Fprintf(&b, " %+v", ev)
	}
	b.WriteString("\n")
	return b.String()
}
