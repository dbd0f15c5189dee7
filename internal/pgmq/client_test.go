package pgmq

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a database with the pgmq extension installed.
func TestSendReadDelete(t *testing.T) {
	dsn := os.Getenv("TEST_PGMQ_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_PGMQ_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	c := New(pool)
	require.NoError(t, c.CreateQueue(ctx, "test_events"))
	require.NoError(t, c.Send(ctx, "test_events", []byte(`{"type":"user.registered"}`)))

	msgs, err := c.ReadWithPoll(ctx, "test_events", 30, 10, 1)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	assert.JSONEq(t, `{"type":"user.registered"}`, string(msgs[0].Data))
	assert.Equal(t, 1, msgs[0].ReadCount)

	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	require.NoError(t, c.Delete(ctx, "test_events", ids))
}
