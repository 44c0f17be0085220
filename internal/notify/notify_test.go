package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFeed_ActiveAndExpiry(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	feed := NewFeed(10).WithClock(func() time.Time { return start })

	feed.Notify("saved", SeveritySuccess, 3*time.Second)
	feed.Notify("storage failed", SeverityError, Persistent)

	active := feed.Active(start.Add(time.Second))
	require.Len(t, active, 2)
	assert.Equal(t, "storage failed", active[0].Message, "newest first")
	assert.True(t, active[0].Persistent)
	assert.False(t, active[1].Persistent)

	later := feed.Active(start.Add(time.Hour))
	require.Len(t, later, 1)
	assert.Equal(t, SeverityError, later[0].Severity)
}

func TestFeed_Acknowledge(t *testing.T) {
	feed := NewFeed(10)
	feed.Notify("corrupted store", SeverityError, Persistent)

	active := feed.Active(time.Now())
	require.Len(t, active, 1)

	assert.True(t, feed.Acknowledge(active[0].ID))
	assert.Empty(t, feed.Active(time.Now()))
	assert.False(t, feed.Acknowledge("unknown"))
}

func TestFeed_Bounded(t *testing.T) {
	feed := NewFeed(3)
	for i := 0; i < 5; i++ {
		feed.Notify(fmt.Sprintf("n%d", i), SeverityInfo, Persistent)
	}
	assert.Equal(t, 3, feed.Len())

	active := feed.Active(time.Now())
	require.Len(t, active, 3)
	assert.Equal(t, "n4", active[0].Message)
	assert.Equal(t, "n2", active[2].Message)
}

type recorder struct {
	messages []string
}

func (r *recorder) Notify(message string, _ Severity, _ time.Duration) {
	r.messages = append(r.messages, message)
}

func TestFanout(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Fanout{a, nil, b, Nop{}}.Notify("hello", SeverityInfo, time.Second)

	assert.Equal(t, []string{"hello"}, a.messages)
	assert.Equal(t, []string{"hello"}, b.messages)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewLogNotifier(zap.New(core))

	n.Notify("disk full", SeverityError, Persistent)
	n.Notify("already on", SeverityInfo, 2*time.Second)
	n.Notify("must stop first", SeverityWarning, 2*time.Second)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "disk full", entries[0].Message)
	assert.Equal(t, true, entries[0].ContextMap()["persistent"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestFeed_Subscribe(t *testing.T) {
	feed := NewFeed(5)
	var got []Notification
	feed.Subscribe(func(n Notification) { got = append(got, n) })

	feed.Notify("reminder", SeverityInfo, 8*time.Second)

	require.Len(t, got, 1)
	assert.Equal(t, "reminder", got[0].Message)
	assert.Equal(t, feed.Active(got[0].CreatedAt)[0].ID, got[0].ID)
}
