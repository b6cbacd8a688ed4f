package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnavailable(t *testing.T) {
	assert.NoError(t, Unavailable(nil))

	err := Unavailable(errors.New("dial tcp: refused"))
	assert.ErrorIs(t, err, ErrBusUnavailable)
	assert.Equal(t, "event bus unavailable: dial tcp: refused", err.Error())

	assert.Same(t, ErrBusUnavailable, Unavailable(ErrBusUnavailable))
}

func TestMessage(t *testing.T) {
	msg := &Message{Topic: "booking-events", Partition: 2, Offset: 41, Headers: map[string]string{"event-id": "e1"}}

	assert.Equal(t, "booking-events[2 | 41]", msg.String())
	assert.Equal(t, TopicPartition{Topic: "booking-events", Partition: 2}, msg.TopicPartition())
	assert.Equal(t, "e1", msg.Header("event-id"))
	assert.Empty(t, (&Message{}).Header("event-id"))
}

func TestCloneHeaders(t *testing.T) {
	src := map[string]string{"a": "1"}
	dst := CloneHeaders(src)
	dst["b"] = "2"

	assert.Len(t, src, 1)
	assert.Len(t, CloneHeaders(nil), 0)
}
