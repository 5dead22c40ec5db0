package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entangledu/internal/issuer/models"
)

func cert(n int) models.Certificate {
	return models.Certificate{
		ID:       models.CertificateID(fmt.Sprintf("cert_%d", n)),
		LessonID: fmt.Sprint(n),
		IssuedAt: time.UnixMilli(int64(n)).UTC(),
	}
}

func TestInMemoryStore_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Append(ctx, cert(i)))
	}

	list := s.List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, 3, s.Count(ctx))
	for i, c := range list {
		assert.Equal(t, fmt.Sprint(i+1), c.LessonID)
	}
}

func TestInMemoryStore_ListIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Append(ctx, cert(1)))

	list := s.List(ctx)
	list[0].Title = "mutated"

	assert.Empty(t, s.List(ctx)[0].Title)
}

func TestInMemoryStore_RejectsInvalidAppend(t *testing.T) {
	s := New()

	t.Run("empty id", func(t *testing.T) {
		assert.ErrorIs(t, s.Append(context.Background(), models.Certificate{}), ErrEmptyID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, s.Append(ctx, cert(1)), context.Canceled)
	})

	assert.Zero(t, s.Count(context.Background()))
}

func TestInMemoryStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, cert(i))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Count(ctx))
}
