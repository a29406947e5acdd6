// Package events implements the EventBus component (M, fire-and-forget
// half), repurposing IANDYI-care-service's rabbitmq_publisher.go connection
// management (circuit breaker, bounded retry, background reconnect) as the
// RabbitMQ mirror behind an in-process handler fan-out.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
)

// Bus fans a published Event out to every in-process handler registered for
// its type (plus every wildcard handler) and mirrors the same payload onto a
// RabbitMQ queue for out-of-process consumers. Handlers run concurrently and
// are gathered before Publish returns; a handler panic is recovered and
// logged, never propagated to the publisher — see the resolved
// EventBus semantics in the design notes.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	any      []ports.EventHandler

	conn          *amqp091.Connection
	channel       *amqp091.Channel
	queueName     string
	cb            *gobreaker.CircuitBreaker
	maxRetries    int
	retryDelay    time.Duration
	connMutex     sync.RWMutex
	reconnectCh   chan bool
	stopReconnect chan bool
}

// New connects to rabbitMQURL and starts its background reconnect loop. If
// rabbitMQURL is empty the bus runs purely in-process, useful for tests.
func New(rabbitMQURL, queueName string) (*Bus, error) {
	if queueName == "" {
		queueName = "domain_events"
	}
	b := &Bus{
		handlers:      make(map[string][]ports.EventHandler),
		queueName:     queueName,
		maxRetries:    3,
		retryDelay:    time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "eventbus.rabbitmq",
			MaxRequests: 5,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}
	if rabbitMQURL == "" {
		return b, nil
	}
	if err := b.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("events: connect to rabbitmq: %w", err)
	}
	go b.handleReconnection(rabbitMQURL)
	return b, nil
}

func (b *Bus) connect(rabbitMQURL string) error {
	var err error
	for i := 0; i < b.maxRetries; i++ {
		b.conn, err = amqp091.Dial(rabbitMQURL)
		if err == nil {
			break
		}
		log.Printf("events: connect attempt %d/%d failed: %v", i+1, b.maxRetries, err)
		if i < b.maxRetries-1 {
			time.Sleep(b.retryDelay)
		}
	}
	if err != nil {
		return err
	}
	b.channel, err = b.conn.Channel()
	if err != nil {
		b.conn.Close()
		return err
	}
	_, err = b.channel.QueueDeclare(b.queueName, true, false, false, false, nil)
	if err != nil {
		b.channel.Close()
		b.conn.Close()
		return err
	}
	log.Println("events: connected to rabbitmq")
	return nil
}

func (b *Bus) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-b.reconnectCh:
			log.Println("events: reconnecting to rabbitmq...")
			b.connMutex.Lock()
			if b.channel != nil {
				b.channel.Close()
			}
			if b.conn != nil {
				b.conn.Close()
			}
			b.connMutex.Unlock()
			if err := b.connect(rabbitMQURL); err != nil {
				log.Printf("events: reconnect failed: %v", err)
			}
		case <-b.stopReconnect:
			return
		}
	}
}

func (b *Bus) Register(eventType string, h ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

func (b *Bus) RegisterAny(h ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.any = append(b.any, h)
}

// Publish gathers every matching in-process handler plus the RabbitMQ
// mirror, runs them concurrently, and waits for all of them before
// returning. Handler panics are recovered and logged, as are mirror publish
// errors; Publish never returns an error to the caller.
func (b *Bus) Publish(ctx context.Context, evt ports.Event) {
	b.mu.RLock()
	matched := append([]ports.EventHandler{}, b.handlers[evt.EventType()]...)
	matched = append(matched, b.any...)
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, h := range matched {
		wg.Add(1)
		go func(h ports.EventHandler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("events: handler for %s panicked: %v", evt.EventType(), r)
				}
			}()
			h(ctx, evt)
		}(h)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := b.mirror(ctx, evt); err != nil {
			log.Printf("events: rabbitmq mirror for %s failed: %v", evt.EventType(), err)
		}
	}()

	wg.Wait()
}

func (b *Bus) mirror(ctx context.Context, evt ports.Event) error {
	b.connMutex.RLock()
	hasConn := b.conn != nil
	b.connMutex.RUnlock()
	if !hasConn {
		return nil
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.publishWithRetry(ctx, evt)
	})
	return err
}

func (b *Bus) publishWithRetry(ctx context.Context, evt ports.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", evt.EventType(), err)
	}

	var lastErr error
	for i := 0; i < b.maxRetries; i++ {
		b.connMutex.RLock()
		ch := b.channel
		conn := b.conn
		b.connMutex.RUnlock()

		if ch == nil || conn == nil || conn.IsClosed() {
			select {
			case b.reconnectCh <- true:
			default:
			}
			time.Sleep(b.retryDelay)
			continue
		}

		err = ch.PublishWithContext(ctx, "", b.queueName, false, false, amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         evt.EventType(),
		})
		if err == nil {
			return nil
		}
		lastErr = err
		log.Printf("events: publish attempt %d/%d failed: %v", i+1, b.maxRetries, err)
		if i < b.maxRetries-1 {
			select {
			case b.reconnectCh <- true:
			default:
			}
			time.Sleep(b.retryDelay)
		}
	}
	return fmt.Errorf("events: publish failed after %d retries: %w", b.maxRetries, lastErr)
}

func (b *Bus) Close() error {
	close(b.stopReconnect)
	b.connMutex.Lock()
	defer b.connMutex.Unlock()
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

var _ ports.EventBus = (*Bus)(nil)
