package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/swanjin/go2/internal/config"
	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/pkg/models"
)

// HeaderTypeName carries the registered type name of the sample
const HeaderTypeName = "Dds-Type"

// TransportName labels samples that arrived over NATS
const TransportName = "nats"

// MessageHandler processes one delivered sample
type MessageHandler func(models.Delivery) error

// Client publishes and subscribes CDR samples on the subject of one topic
type Client struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	logger  *logging.Logger
	closed  chan struct{}
}

// Subject returns the subject carrying topic, e.g. "dds.HelloWorldData_Msg"
func Subject(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return strings.TrimSuffix(prefix, ".") + "." + topic
}

// NewClient connects to the server named in cfg
func NewClient(cfg config.NATSConfig, topic string, logger *logging.Logger) (*Client, error) {
	logger = logger.Named("nats")
	if cfg.Timeout <= 0 {
		cfg.Timeout = nats.DefaultTimeout
	}

	closed := make(chan struct{})
	var closeOnce sync.Once

	opts := []nats.Option{
		nats.Name("go2-" + topic),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "server", nc.ConnectedUrl())
		}),
		nats.DrainTimeout(cfg.Timeout),
		nats.ClosedHandler(func(*nats.Conn) {
			closeOnce.Do(func() { close(closed) })
		}),
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.Creds != "" {
		opts = append(opts, nats.UserCredentials(cfg.Creds))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subject := Subject(cfg.SubjectPrefix, topic)
	return &Client{
		conn:    nc,
		subject: subject,
		timeout: cfg.Timeout,
		logger:  logger.WithField("subject", subject),
		closed:  closed,
	}, nil
}

// Publish sends one sample and waits for the server to acknowledge the flush
func (c *Client) Publish(ctx context.Context, d models.Delivery) error {
	msg := nats.NewMsg(c.subject)
	msg.Data = d.Data
	msg.Header.Set(nats.MsgIdHdr, d.ID)
	msg.Header.Set(HeaderTypeName, d.TypeName)

	if err := c.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish sample to %s: %w", c.subject, err)
	}

	var err error
	if _, ok := ctx.Deadline(); ok {
		err = c.conn.FlushWithContext(ctx)
	} else {
		err = c.conn.FlushTimeout(c.timeout)
	}
	if err != nil {
		return fmt.Errorf("failed to flush sample to %s: %w", c.subject, err)
	}

	c.logger.Debug("Sample sent", "sampleId", d.ID)
	return nil
}

// Subscribe delivers samples to handler until ctx is cancelled. It then
// drains and closes the connection, returning only once every sample already
// delivered has been handled.
func (c *Client) Subscribe(ctx context.Context, handler MessageHandler) error {
	if _, err := c.conn.Subscribe(c.subject, newMsgHandler(handler, c.logger)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.subject, err)
	}
	if err := c.conn.Flush(); err != nil {
		return fmt.Errorf("failed to register subscription on %s: %w", c.subject, err)
	}
	c.logger.Info("Subscribed")

	<-ctx.Done()
	return c.drain()
}

// drain stops interest, waits for pending callbacks and flushes outstanding
// publishes. The connection is closed afterwards.
func (c *Client) drain() error {
	err := c.conn.Drain()
	switch {
	case err == nil, errors.Is(err, nats.ErrConnectionClosed):
	case errors.Is(err, nats.ErrConnectionReconnecting):
		// nats closes a reconnecting connection instead of draining it
		c.logger.Warn("Connection closed without draining", "error", err)
	default:
		return fmt.Errorf("failed to drain connection: %w", err)
	}

	// The closed handler runs once the drain finishes or hits DrainTimeout
	<-c.closed
	return nil
}

// newMsgHandler adapts a MessageHandler. Core NATS has no redelivery, so
// handler failures are only logged.
func newMsgHandler(handler MessageHandler, logger *logging.Logger) nats.MsgHandler {
	return func(m *nats.Msg) {
		d := DeliveryFromMsg(m)
		if err := handler(d); err != nil {
			logger.Error("Error processing sample", "sampleId", d.ID, "error", err)
		}
	}
}

// DeliveryFromMsg extracts the sample carried by a NATS message
func DeliveryFromMsg(m *nats.Msg) models.Delivery {
	d := models.Delivery{
		Data:      m.Data,
		Transport: TransportName,
	}
	if m.Header != nil {
		d.ID = m.Header.Get(nats.MsgIdHdr)
		d.TypeName = m.Header.Get(HeaderTypeName)
	}
	return d
}

// IsConnected returns true if the client is connected to NATS
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains pending messages and waits for the connection to close
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.drain()
}
