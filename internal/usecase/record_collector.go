package usecase

import (
	"context"

	"BiasEngine/internal/domain/models"
	domrepo "BiasEngine/internal/domain/repository"
	mid "BiasEngine/internal/middleware"
)

// RecordCollector pulls sentiment snapshots off the live stream and pushes
// them through the pipeline into the orchestrator.
type RecordCollector struct {
	stream  domrepo.RecordStream
	metrics domrepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewRecordCollector creates a new RecordCollector instance.
func NewRecordCollector(stream domrepo.RecordStream, metrics domrepo.Metrics, pipe *mid.RealtimePipeline) *RecordCollector {
	return &RecordCollector{stream: stream, metrics: metrics, pipe: pipe}
}

// IsConnected reports whether the sentiment stream is connected.
func (c *RecordCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *RecordCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	recCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, recCh, errCh)
	return nil
}

func (c *RecordCollector) consume(ctx context.Context, recCh <-chan *models.SentimentData, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case s := <-recCh:
			if s == nil {
				continue
			}
			_ = c.pipe.Process(ctx, s)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *RecordCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}
