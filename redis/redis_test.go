package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolfund/meta"
)

func newSink(t *testing.T) (*Sink, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	s := NewSink(Options{Addr: mr.Addr()})
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestPublish(t *testing.T) {
	s, mr := newSink(t)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	pool := meta.Contract("pool")
	events := []meta.ContractEvent{
		{TxID: "t1", Contract: pool, Topic: "deposit", Data: map[string]interface{}{"amount": float64(10)}},
		{TxID: "t1", Contract: pool, Topic: "attended"},
	}
	require.NoError(t, s.Publish(ctx, events))
	require.NoError(t, s.Publish(ctx, nil))

	list, err := mr.List("contractEvents")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := s.Events(ctx)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestPublishCustomKey(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewSink(Options{Addr: mr.Addr(), Key: "pool:events"})
	defer s.Close()
	require.NoError(t, s.Publish(context.Background(), []meta.ContractEvent{{TxID: "t", Topic: "refund"}}))
	assert.True(t, mr.Exists("pool:events"))
	assert.False(t, mr.Exists("contractEvents"))
}

func TestPublishUnavailable(t *testing.T) {
	s, mr := newSink(t)
	mr.Close()
	err := s.Publish(context.Background(), []meta.ContractEvent{{TxID: "t", Topic: "refund"}})
	assert.Error(t, err)
}
