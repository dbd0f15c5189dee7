package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/events"
	"fintrack/internal/pgmq"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu      sync.Mutex
	pending []*pgmq.Message
	sent    map[string][][]byte
	deleted []int64
	sendErr error
}

func (q *fakeQueue) ReadWithPoll(ctx context.Context, _ string, _, max, _ int) ([]*pgmq.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, ctx.Err()
	}
	n := min(max, len(q.pending))
	out := q.pending[:n]
	q.pending = q.pending[n:]
	return out, nil
}

func (q *fakeQueue) Send(_ context.Context, queue string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sendErr != nil {
		return q.sendErr
	}
	if q.sent == nil {
		q.sent = map[string][][]byte{}
	}
	q.sent[queue] = append(q.sent[queue], payload)
	return nil
}

func (q *fakeQueue) Delete(_ context.Context, _ string, ids []int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, ids...)
	return nil
}

type recordedDeadLetter struct {
	source, eventType string
	attempts          int
	cause             error
}

type fakeDeadLetters struct {
	records []recordedDeadLetter
	err     error
}

func (d *fakeDeadLetters) Record(_ context.Context, source, eventType string, _ []byte, attempts int, cause error) error {
	if d.err != nil {
		return d.err
	}
	d.records = append(d.records, recordedDeadLetter{source, eventType, attempts, cause})
	return nil
}

func testWorker(q Queue, h events.Handler, dlq DeadLetters) (*Worker, *[]time.Duration) {
	w := NewWorker(q, h, dlq, WorkerConfig{
		Queue:           "notifications",
		DeadLetterQueue: "notifications_dlq",
		PollMaxMsg:      10,
		MaxRetries:      4,
		BackoffInitial:  time.Second,
		BackoffMax:      3 * time.Second,
	}, zerolog.Nop())
	var slept []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }
	return w, &slept
}

func eventMessage(t *testing.T, id int64) *pgmq.Message {
	t.Helper()
	body, err := json.Marshal(events.New(events.TypeUserRegistered, user(), nil))
	require.NoError(t, err)
	return &pgmq.Message{ID: id, Data: body}
}

func TestWorkerRetriesThenSucceeds(t *testing.T) {
	q := &fakeQueue{}
	calls := 0
	w, slept := testWorker(q, func(context.Context, events.Event) error {
		calls++
		if calls < 3 {
			return errors.New("smtp busy")
		}
		return nil
	}, &fakeDeadLetters{})

	w.process(context.Background(), eventMessage(t, 7))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
	assert.Equal(t, []int64{7}, q.deleted)
	assert.Empty(t, q.sent)
}

func TestWorkerDeadLettersAfterMaxRetries(t *testing.T) {
	q := &fakeQueue{}
	dlq := &fakeDeadLetters{}
	w, slept := testWorker(q, func(context.Context, events.Event) error {
		return errors.New("smtp down")
	}, dlq)

	w.process(context.Background(), eventMessage(t, 9))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, *slept)
	assert.Len(t, q.sent["notifications_dlq"], 1)
	assert.Equal(t, []int64{9}, q.deleted)
	require.Len(t, dlq.records, 1)
	assert.Equal(t, "pgmq:notifications", dlq.records[0].source)
	assert.Equal(t, events.TypeUserRegistered, dlq.records[0].eventType)
	assert.Equal(t, 4, dlq.records[0].attempts)
	assert.EqualError(t, dlq.records[0].cause, "smtp down")
}

func TestWorkerDeadLettersMalformed(t *testing.T) {
	q := &fakeQueue{}
	dlq := &fakeDeadLetters{}
	called := false
	w, _ := testWorker(q, func(context.Context, events.Event) error {
		called = true
		return nil
	}, dlq)

	w.process(context.Background(), &pgmq.Message{ID: 3, Data: []byte(`{"id":"x"}`)})
	assert.False(t, called)
	assert.Equal(t, []int64{3}, q.deleted)
	require.Len(t, dlq.records, 1)
	assert.Equal(t, 1, dlq.records[0].attempts)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	q := &fakeQueue{}
	q.pending = []*pgmq.Message{eventMessage(t, 1), eventMessage(t, 2)}
	ctx, cancel := context.WithCancel(context.Background())

	var handled int
	w, _ := testWorker(q, func(context.Context, events.Event) error {
		handled++
		if handled == 2 {
			cancel()
		}
		return nil
	}, nil)

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 2, handled)
	assert.Equal(t, []int64{1, 2}, q.deleted)
}

func TestWorkerKeepsMessageWhenDeadLetterFails(t *testing.T) {
	q := &fakeQueue{sendErr: errors.New("queue unavailable")}
	dlq := &fakeDeadLetters{err: errors.New("db unavailable")}
	w, _ := testWorker(q, func(context.Context, events.Event) error {
		return errors.New("smtp down")
	}, dlq)

	w.process(context.Background(), eventMessage(t, 11))
	assert.Empty(t, q.deleted)

	// One working sink is enough to release the message.
	q.sendErr = nil
	w.process(context.Background(), eventMessage(t, 12))
	assert.Equal(t, []int64{12}, q.deleted)
	assert.Len(t, q.sent["notifications_dlq"], 1)
}
