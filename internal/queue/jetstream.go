package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const jobStream = "DRIVE_JOBS"

type JetStream struct {
	nc            *nats.Conn
	js            nats.JetStreamContext
	durableName   string
	maxAckPending int
	ackWait       time.Duration
}

// NewJetStream connects to NATS and makes sure the job stream exists.
func NewJetStream(cfg configuration.QueueConfig) (*JetStream, error) {
	log := logging.L()
	opts := []nats.Option{
		nats.Name("drive-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("[NATS] disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("[NATS] reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("[NATS] connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to init JetStream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	log.Info("[NATS] connected and JetStream initialized")
	return &JetStream{
		nc:            nc,
		js:            js,
		durableName:   cfg.DurableName,
		maxAckPending: cfg.Prefetch,
		ackWait:       cfg.AckWait,
	}, nil
}

// streamConfig keeps each job until exactly one consumer acknowledges or
// terminates it.
func streamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:      jobStream,
		Subjects:  []string{ThumbnailQueue},
		Storage:   nats.FileStorage,
		Retention: nats.WorkQueuePolicy,
		MaxAge:    7 * 24 * time.Hour,
	}
}

func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(jobStream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(streamConfig())
	return err
}

func (j *JetStream) Publish(ctx context.Context, queue string, body []byte) error {
	_, err := j.js.Publish(queue, body, nats.MsgId(uuid.NewString()), nats.Context(ctx))
	if err != nil {
		logging.WithContext(ctx).Warn("[NATS] publish failed", zap.String("subject", queue), zap.Error(err))
		return err
	}
	return nil
}

func (j *JetStream) subscribeOptions() []nats.SubOpt {
	opts := []nats.SubOpt{
		nats.Durable(j.durableName),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.DeliverAll(),
	}
	if j.maxAckPending > 0 {
		opts = append(opts, nats.MaxAckPending(j.maxAckPending))
	}
	if j.ackWait > 0 {
		opts = append(opts, nats.AckWait(j.ackWait))
	}
	return opts
}

// Consume joins the durable queue group so several worker processes share
// the stream.
func (j *JetStream) Consume(ctx context.Context, queue string, handler Handler) error {
	sub, err := j.js.QueueSubscribe(queue, j.durableName, func(msg *nats.Msg) {
		handler(ctx, jsDelivery{msg: msg})
	}, j.subscribeOptions()...)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", queue, err)
	}
	logging.L().Info("[NATS] subscribed", zap.String("subject", queue), zap.String("durable", j.durableName))

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		logging.L().Warn("[NATS] drain failed", zap.Error(err))
	}
	return nil
}

func (j *JetStream) Close() error {
	if j.nc != nil && !j.nc.IsClosed() {
		return j.nc.Drain()
	}
	return nil
}

type jsDelivery struct {
	msg *nats.Msg
}

func (d jsDelivery) Body() []byte { return d.msg.Data }

func (d jsDelivery) Ack() error { return d.msg.Ack() }

// Reject terminates the message so JetStream never redelivers it.
func (d jsDelivery) Reject() error { return d.msg.Term() }
