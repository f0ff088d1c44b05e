package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

func TestKeysEmbedNamespace(t *testing.T) {
	a := KeyTickets("e1.4", "Shanghai", "Beijing", 3, "time")
	b := KeyTickets("e1.5", "Shanghai", "Beijing", 3, "time")

	assert.NotEqual(t, a, b)
	assert.Equal(t, "tixrail:v1:e1.4:tickets:Shanghai:Beijing:06-04:time", a)
	assert.Equal(t, "tixrail:v1:e1.4:train:G%2F1:06-01", KeyTrain("e1.4", "G/1", 0))
	assert.Equal(t, "tixrail:v1:rl:purchase:user:alice", KeyRateLimit("purchase", "user:alice"))
}

func TestKeysSeparateSegments(t *testing.T) {
	assert.Equal(t, "tixrail:v1:idem:purchase:alice:order%3A7", KeyIdemPurchase("alice", "order:7"))
	assert.NotEqual(t, KeyIdemPurchase("alice:x", "y"), KeyIdemPurchase("alice", "x:y"))
	assert.NotEqual(t,
		KeyTickets("e1.1", "A:B", "C", 0, "time"),
		KeyTickets("e1.1", "A", "B:C", 0, "time"),
	)
}

func TestIdempotencyRecordRoundTrip(t *testing.T) {
	in := StoredResponse{Status: 202, Body: []byte(`{"order_id":7,"status":"pending"}`)}

	out, ok, err := decodeResult(encodeResult(in))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	_, ok, err = decodeResult(idemLock)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = decodeResult("RES:abc")
	assert.Error(t, err)
}

func TestVerdictOf(t *testing.T) {
	v, err := verdictOf([]int64{1, 4, 0})
	require.NoError(t, err)
	assert.Equal(t, Verdict{Allowed: true, Hits: 4}, v)

	v, err = verdictOf([]int64{0, 10, 1500})
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, 1500*time.Millisecond, v.RetryAfter)

	_, err = verdictOf([]int64{1})
	assert.Error(t, err)
}

func TestGetOrSetJSONWithoutCacheLoads(t *testing.T) {
	calls := 0
	got, err := GetOrSetJSON(context.Background(), nil, "k", 0, func(ctx context.Context) ([]domain.ItinerarySummary, error) {
		calls++
		return []domain.ItinerarySummary{{TrainID: "T1"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "T1", got[0].TrainID)

	boom := errors.New("boom")
	_, err = GetOrSetJSON(context.Background(), nil, "k", 0, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}
