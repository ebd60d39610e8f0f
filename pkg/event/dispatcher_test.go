package event

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasWega/TG-Middleware/pkg/logger"
	"github.com/ThomasWega/TG-Middleware/pkg/rabbit"
)

type fakePublisher struct {
	published [][]byte
	props     []rabbit.Properties
	consumeFn func(body []byte)
}

func (f *fakePublisher) PublishAsync(ctx context.Context, ex *rabbit.Exchange, props rabbit.Properties, body []byte) {
	f.published = append(f.published, body)
	f.props = append(f.props, props)
}

func (f *fakePublisher) Consume(queueName string, fn func(body []byte)) error {
	f.consumeFn = fn
	return nil
}

func TestFireNotifiesListenersAndPublishes(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, logger.Nop())

	var got []uuid.UUID
	d.Subscribe(func(id uuid.UUID) {
		got = append(got, id)
	})

	id := uuid.New()
	d.Fire(context.Background(), id)

	require.Equal(t, []uuid.UUID{id}, got)
	require.Len(t, pub.published, 1)
	assert.Equal(t, MessageTypeUpdate, pub.props[0].Type)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(pub.published[0], &msg))
	assert.Equal(t, id.String(), msg.UUID)
	assert.NotZero(t, msg.Timestamp)
}

func TestFireWithoutChannelStaysLocal(t *testing.T) {
	d := NewDispatcher(nil, logger.Nop())

	fired := 0
	d.Subscribe(func(id uuid.UUID) { fired++ })

	d.Fire(context.Background(), uuid.New())
	assert.Equal(t, 1, fired)
}

func TestListenRefiresRemoteUpdates(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, logger.Nop())

	var got []uuid.UUID
	d.Subscribe(func(id uuid.UUID) {
		got = append(got, id)
	})

	require.NoError(t, d.Listen(rabbit.PlayerDataUpdateQueue.Name))
	require.NotNil(t, pub.consumeFn)

	id := uuid.New()
	body, err := json.Marshal(UpdateMessage{UUID: id.String(), Timestamp: 1})
	require.NoError(t, err)

	pub.consumeFn(body)
	assert.Equal(t, []uuid.UUID{id}, got)
}

func TestListenSkipsMalformedMessages(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(pub, logger.Nop())

	fired := 0
	d.Subscribe(func(id uuid.UUID) { fired++ })

	require.NoError(t, d.Listen(rabbit.PlayerDataUpdateQueue.Name))

	pub.consumeFn([]byte("not json"))
	pub.consumeFn([]byte(`{"uuid":"not-a-uuid","timestamp":1}`))
	assert.Equal(t, 0, fired)
}
