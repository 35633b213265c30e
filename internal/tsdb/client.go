// Package tsdb mirrors stored readings into InfluxDB for dashboards.
package tsdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/report"
)

const (
	// Measurement is the InfluxDB measurement readings are written to.
	Measurement = "sensor_reading"

	defaultBatchSize     = 100
	defaultFlushInterval = 5 * time.Second
	defaultPingTimeout   = 5 * time.Second
)

// Config holds InfluxDB settings.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// BatchSize and FlushInterval tune the non-blocking writer.
	BatchSize     uint
	FlushInterval time.Duration
}

// Client writes readings through InfluxDB's non-blocking write API.
// It implements report.Sink.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a client. Writes are batched; failures are logged.
func New(cfg Config, logger zerolog.Logger) *Client {
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}
	flush := cfg.FlushInterval
	if flush == 0 {
		flush = defaultFlushInterval
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(batchSize).
			SetFlushInterval(uint(flush.Milliseconds())), //nolint:gosec // positive by construction
	)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	c := &Client{
		client:   client,
		writeAPI: writeAPI,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go c.logWriteErrors(writeAPI.Errors())

	return c
}

// Ping checks that the server is reachable and healthy.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	ok, err := c.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influxdb ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("influxdb ping: server not healthy")
	}
	return nil
}

// Record implements report.Sink. It never blocks on the network.
func (c *Client) Record(_ context.Context, r *report.Report) {
	c.writeAPI.WritePoint(NewPoint(r))
}

// Flush writes buffered points.
func (c *Client) Flush() {
	c.writeAPI.Flush()
}

// Close flushes pending points and closes the client.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.writeAPI.Flush()
		c.client.Close()
		close(c.done)
	})
}

// NewPoint converts a reading into an InfluxDB point.
func NewPoint(r *report.Report) *write.Point {
	return influxdb2.NewPoint(
		Measurement,
		map[string]string{"sensor_id": r.SensorID},
		map[string]interface{}{"value": r.Valor},
		r.Fecha,
	)
}

func (c *Client) logWriteErrors(errs <-chan error) {
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			c.logger.Warn().Err(err).Msg("influxdb write failed")
		case <-c.done:
			return
		}
	}
}
