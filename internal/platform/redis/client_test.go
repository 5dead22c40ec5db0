package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Health(context.Background()))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)

	_, err = New(context.Background(), "not a url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = New(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}

func TestWithDialTimeout(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), "redis://"+mr.Addr(), WithDialTimeout(750*time.Millisecond))
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 750*time.Millisecond, c.Options().DialTimeout)

	d, err := New(context.Background(), "redis://"+mr.Addr()+"?dial_timeout=2s", WithDialTimeout(time.Second))
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, 2*time.Second, d.Options().DialTimeout)
}
