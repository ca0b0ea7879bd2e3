package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acked    []uint64
	nacked   []uint64
	requeued []bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	f.requeued = append(f.requeued, requeue)
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return errors.New("unexpected Reject")
}

func TestAMQPDelivery_RejectDoesNotRequeue(t *testing.T) {
	ack := &fakeAcknowledger{}
	d := amqpDelivery{d: amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte("{}")}}

	require.NoError(t, d.Reject())
	assert.Equal(t, []uint64{7}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeued)
	assert.Empty(t, ack.acked)
}

func TestAMQPDelivery_Ack(t *testing.T) {
	ack := &fakeAcknowledger{}
	d := amqpDelivery{d: amqp.Delivery{Acknowledger: ack, DeliveryTag: 3}}

	require.NoError(t, d.Ack())
	assert.Equal(t, []uint64{3}, ack.acked)
}

func TestPersistentMessage(t *testing.T) {
	msg := persistentMessage([]byte(`{"fileId":"f1"}`))
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
}

func TestStreamConfig_IsDurableWorkQueue(t *testing.T) {
	cfg := streamConfig()
	assert.Equal(t, []string{ThumbnailQueue}, cfg.Subjects)
	assert.Equal(t, nats.FileStorage, cfg.Storage)
	assert.Equal(t, nats.WorkQueuePolicy, cfg.Retention)
}

func TestJetStream_SubscribeOptionsBoundInFlight(t *testing.T) {
	j := &JetStream{durableName: "thumbnail-worker", maxAckPending: 4}
	assert.Len(t, j.subscribeOptions(), 5)

	j = &JetStream{durableName: "thumbnail-worker"}
	assert.Len(t, j.subscribeOptions(), 4)
}

type recordingPublisher struct {
	queue string
	body  []byte
}

func (r *recordingPublisher) Publish(ctx context.Context, queue string, body []byte) error {
	r.queue, r.body = queue, body
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func TestPublishJSON_ThumbnailJobWireFormat(t *testing.T) {
	p := &recordingPublisher{}
	job := models.ThumbnailJob{FileID: "f1", BlobID: "b1", ContentKey: "uploads/u1/k", Type: "jpg"}

	require.NoError(t, PublishJSON(context.Background(), p, ThumbnailQueue, job))

	assert.Equal(t, "PROCESS_THUMBNAIL", p.queue)
	var wire map[string]string
	require.NoError(t, json.Unmarshal(p.body, &wire))
	assert.Equal(t, map[string]string{"fileId": "f1", "blobId": "b1", "s3Key": "uploads/u1/k", "type": "jpg"}, wire)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(configuration.QueueConfig{Driver: "kafka"})
	assert.EqualError(t, err, `unknown queue driver "kafka"`)
}
