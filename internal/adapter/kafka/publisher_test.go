package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

var testRecord = domain.Record{Date: "2024-01-15", Killed: 24100, Injured: 60317, DailyKilled: 150}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	msg, err := serializeToMessage(Update{
		Region:      domain.RegionGaza,
		Fingerprint: "586363796",
		Record:      testRecord,
		PublishedAt: now,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("gaza"), msg.Key)
	assert.Contains(t, string(msg.Value), `"region":"gaza"`)
	assert.Contains(t, string(msg.Value), `"killed":24100`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "report_date", msg.Headers[0].Key)
	assert.Equal(t, []byte("2024-01-15"), msg.Headers[0].Value)
	assert.Equal(t, "published_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestPublisher_PublishLatest(t *testing.T) {
	w := &mockWriter{}
	p := &Publisher{
		writer: w,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) },
	}

	require.NoError(t, p.PublishLatest(context.Background(), domain.RegionGaza, testRecord))
	require.Len(t, w.msgs, 1)
	assert.Contains(t, string(w.msgs[0].Value), `"fingerprint":"586363796"`)

	w.err = errors.New("broker down")
	err := p.PublishLatest(context.Background(), domain.RegionGaza, testRecord)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish gaza update")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
