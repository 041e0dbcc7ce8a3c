package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

// AuditConsumer drains the account queue into an append-only log file.
type AuditConsumer struct {
	URL     string
	Queue   string
	LogPath string
	Log     *slog.Logger

	mu sync.Mutex
}

func NewAuditConsumer(url, queue, logPath string, log *slog.Logger) *AuditConsumer {
	if log == nil {
		log = slog.Default()
	}
	return &AuditConsumer{URL: url, Queue: queue, LogPath: logPath, Log: log}
}

// Run connects to the broker and consumes until ctx is cancelled, redialing
// with exponential backoff whenever the connection or delivery channel drops.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("audit consumer dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("audit consumer loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("audit consumer set QoS failed", "err", err)
	}
	if err := declare(ch, c.Queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Log.Error("audit consumer handle failed", "err", err)
				_ = d.Nack(false, false) // drop; requeueing a bad payload just spins
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends its audit line to LogPath.
func (c *AuditConsumer) Handle(body []byte) error {
	var ev AccountEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if err := WriteAuditLine(f, ev); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// WriteAuditLine formats ev as a single human-readable line.
func WriteAuditLine(w io.Writer, ev AccountEvent) error {
	_, err := fmt.Fprintf(w, "[%s] %s | user_id=%s | email=%q | jti=%s | remember_me=%t\n",
		ev.OccurredAt, ev.Type, orDash(ev.UserID), ev.Email, orDash(ev.JTI), ev.RememberMe)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
