package extract_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xymaxim/vpick/internal/cache"
	"github.com/xymaxim/vpick/internal/extract"
	"github.com/xymaxim/vpick/internal/testutil"
)

func newRedisCache(t *testing.T) *cache.RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCachedProvider_CacheHit(t *testing.T) {
	mock := &testutil.MockProvider{Metadata: testutil.TestMetadata()}
	provider := extract.NewCachedProvider(mock, newRedisCache(t), time.Minute)
	ctx := context.Background()

	first, err := provider.Extract(ctx, testutil.TestVideoURL)
	require.NoError(t, err)
	second, err := provider.Extract(ctx, testutil.TestVideoURL)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.Calls())
	assert.Equal(t, first, second)
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	mock := &testutil.MockProvider{Err: errors.New("network down")}
	provider := extract.NewCachedProvider(mock, newRedisCache(t), time.Minute)
	ctx := context.Background()

	_, err := provider.Extract(ctx, testutil.TestVideoURL)
	require.Error(t, err)
	_, err = provider.Extract(ctx, testutil.TestVideoURL)
	require.Error(t, err)

	assert.Equal(t, 2, mock.Calls())
}

func TestCachedProvider_CoalescesConcurrentCalls(t *testing.T) {
	mock := &testutil.MockProvider{
		Metadata: testutil.TestMetadata(),
		Block:    make(chan struct{}),
	}
	provider := extract.NewCachedProvider(mock, nil, 0)

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := provider.Extract(context.Background(), testutil.TestVideoURL)
			errs <- err
		}()
	}

	// Let every caller join the in-flight call before releasing it.
	require.Eventually(t, func() bool { return mock.Calls() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(mock.Block)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, mock.Calls())
}

func TestCachedProvider_CallerCancellation(t *testing.T) {
	mock := &testutil.MockProvider{
		Metadata: testutil.TestMetadata(),
		Block:    make(chan struct{}),
	}
	defer close(mock.Block)
	provider := extract.NewCachedProvider(mock, nil, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := provider.Extract(ctx, testutil.TestVideoURL)

	var extractionErr *extract.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "extraction timed out", extractionErr.Description())
}
