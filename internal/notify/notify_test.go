package notify

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestEmit_RegistrationOrder(t *testing.T) {
	n := New[int](nil)
	var order []string

	n.On("update", func(v int) error { order = append(order, "first"); return nil })
	n.On("update", func(v int) error { order = append(order, "second"); return nil })
	n.On("other", func(v int) error { order = append(order, "other"); return nil })

	failed := n.Emit("update", 1)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEmit_PayloadDelivered(t *testing.T) {
	n := New[string](nil)
	var got string
	n.On("update", func(v string) error { got = v; return nil })

	n.Emit("update", "hello")
	assert.Equal(t, "hello", got)
}

func TestEmit_NoSubscribers(t *testing.T) {
	n := New[int](nil)
	assert.Equal(t, 0, n.Emit("update", 1))
}

func TestOff(t *testing.T) {
	n := New[int](nil)
	calls := 0
	id := n.On("update", func(int) error { calls++; return nil })
	n.On("update", func(int) error { calls += 10; return nil })

	assert.True(t, n.Off("update", id))
	assert.False(t, n.Off("update", id), "second Off is a no-op")
	assert.False(t, n.Off("other", 999))

	n.Emit("update", 0)
	assert.Equal(t, 10, calls)
	assert.Equal(t, 1, n.Len("update"))
}

func TestSameHandlerTwice(t *testing.T) {
	n := New[int](nil)
	calls := 0
	h := func(int) error { calls++; return nil }

	a := n.On("update", h)
	n.On("update", h)
	n.Emit("update", 0)
	assert.Equal(t, 2, calls)

	n.Off("update", a)
	n.Emit("update", 0)
	assert.Equal(t, 3, calls)
}

func TestEmit_PanicIsolated(t *testing.T) {
	var buf bytes.Buffer
	n := New[int](quietLogger(&buf))
	after := false

	n.On("update", func(int) error { panic("boom") })
	n.On("update", func(int) error { after = true; return nil })

	var failed int
	require.NotPanics(t, func() { failed = n.Emit("update", 1) })
	assert.Equal(t, 1, failed)
	assert.True(t, after, "later handlers still run")
	assert.Contains(t, buf.String(), "event handler failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestEmit_ErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	n := New[int](quietLogger(&buf))
	n.On("update", func(int) error { return errors.New("cannot refresh") })

	assert.Equal(t, 1, n.Emit("update", 1))
	assert.Contains(t, buf.String(), "cannot refresh")
}

func TestOffDuringEmit(t *testing.T) {
	n := New[int](nil)
	var second SubscriptionID
	secondCalls := 0

	n.On("update", func(int) error {
		n.Off("update", second)
		return nil
	})
	second = n.On("update", func(int) error { secondCalls++; return nil })

	// The snapshot taken at Emit still includes the second handler.
	n.Emit("update", 0)
	assert.Equal(t, 1, secondCalls)

	n.Emit("update", 0)
	assert.Equal(t, 1, secondCalls)
}
