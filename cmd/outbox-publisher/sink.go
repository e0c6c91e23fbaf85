package main

import (
	"context"
	"errors"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
)

// gcpSink caches one publisher per topic so batching goroutines are reused.
type gcpSink struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*gcpPublisher
}

func newGCPSink(client *pubsub.Client) *gcpSink {
	return &gcpSink{client: client, publishers: map[string]*gcpPublisher{}}
}

func (s *gcpSink) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *gcpSink) Publisher(topic string) publisher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.publishers[topic]; ok {
		return p
	}
	p := s.client.Publisher(topic)
	if p == nil {
		return nil
	}
	wrapped := &gcpPublisher{Publisher: p}
	s.publishers[topic] = wrapped
	return wrapped
}

// Stop flushes and stops every cached publisher.
func (s *gcpSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, p := range s.publishers {
		p.Publisher.Stop()
		delete(s.publishers, topic)
	}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return &gcpPublishResult{
		PublishResult: p.Publisher.Publish(ctx, msg),
		resume:        func() { p.Publisher.ResumePublish(msg.OrderingKey) },
		orderingKey:   msg.OrderingKey,
	}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
	resume      func()
	orderingKey string
}

// Get waits for the server ack. A failed ordered publish pauses its key, so
// the key is resumed before the row is retried on the next batch.
func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	id, err := r.PublishResult.Get(ctx)
	if err != nil && r.orderingKey != "" && r.resume != nil {
		r.resume()
	}
	return id, err
}

// logSink writes events to the structured log; used in dev without a GCP project.
type logSink struct {
	logg *logger.Logger
}

func (logSink) Ping(context.Context) error { return nil }

func (s logSink) Publisher(topic string) publisher {
	return logPublisher{logg: s.logg, topic: topic}
}

type logPublisher struct {
	logg  *logger.Logger
	topic string
}

func (p logPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"topic":        p.topic,
		"event_type":   msg.Attributes["event_type"],
		"ordering_key": msg.OrderingKey,
		"payload":      string(msg.Data),
	})
	p.logg.Info(logCtx, "event emitted to log sink")
	return logResult(msg.Attributes["event_id"])
}

type logResult string

func (r logResult) Get(context.Context) (string, error) { return string(r), nil }
