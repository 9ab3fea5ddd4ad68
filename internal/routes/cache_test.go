package routes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/map-directions/pkg/cache"
	redisclient "github.com/richxcame/map-directions/pkg/redis"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Configured() error {
	return m.Called().Error(0)
}

func (m *mockFetcher) ComputeRoutes(ctx context.Context, req *Request) (*Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Response), args.Error(1)
}

func newCachedFetcher(t *testing.T) (*CachedFetcher, *mockFetcher, redismock.ClientMock) {
	t.Helper()
	db, redisMock := redismock.NewClientMock()
	next := &mockFetcher{}
	f := NewCachedFetcher(next, cache.NewManager(redisclient.NewFromClient(db), "test"), time.Minute, "")
	return f, next, redisMock
}

func TestCachedFetcherHit(t *testing.T) {
	f, next, redisMock := newCachedFetcher(t)
	req := baseRequest()
	key, err := f.cacheKey(req)
	require.NoError(t, err)

	redisMock.ExpectGet("test:" + key).SetVal(oneRoute)

	resp, err := f.ComputeRoutes(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.CacheHit)
	assert.Equal(t, 15000, resp.Routes[0].DistanceMeters)

	next.AssertNotCalled(t, "ComputeRoutes", mock.Anything, mock.Anything)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedFetcherMissStores(t *testing.T) {
	f, next, redisMock := newCachedFetcher(t)
	req := baseRequest()
	key, err := f.cacheKey(req)
	require.NoError(t, err)

	upstream := &Response{Routes: []Route{{Duration: "60s", Polyline: Polyline{EncodedPolyline: "_p~iF~ps|U"}}}}
	next.On("ComputeRoutes", mock.Anything, req).Return(upstream, nil).Once()

	redisMock.ExpectGet("test:" + key).RedisNil()
	redisMock.Regexp().ExpectSet("test:"+key, `.*`, time.Minute).SetVal("OK")

	resp, err := f.ComputeRoutes(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Same(t, upstream, resp)

	next.AssertExpectations(t)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedFetcherDoesNotStoreFailures(t *testing.T) {
	f, next, redisMock := newCachedFetcher(t)
	req := baseRequest()
	key, err := f.cacheKey(req)
	require.NoError(t, err)

	next.On("ComputeRoutes", mock.Anything, req).Return(nil, ErrNoRoutes).Once()
	redisMock.ExpectGet("test:" + key).RedisNil()

	_, err = f.ComputeRoutes(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoRoutes)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedFetcherRedisDownFallsThrough(t *testing.T) {
	f, next, redisMock := newCachedFetcher(t)
	req := baseRequest()
	key, err := f.cacheKey(req)
	require.NoError(t, err)

	upstream := &Response{Routes: []Route{{Duration: "60s"}}}
	next.On("ComputeRoutes", mock.Anything, req).Return(upstream, nil).Once()
	redisMock.ExpectGet("test:" + key).SetErr(errors.New("connection refused"))
	redisMock.Regexp().ExpectSet("test:"+key, `.*`, time.Minute).SetErr(errors.New("connection refused"))

	resp, err := f.ComputeRoutes(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, upstream, resp)
}

func TestCachedFetcherKeyDependsOnRequest(t *testing.T) {
	f, _, _ := newCachedFetcher(t)
	a, err := f.cacheKey(baseRequest())
	require.NoError(t, err)

	req := baseRequest()
	req.Options.Mode = TravelModeWalk
	b, err := f.cacheKey(req)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	again, _ := f.cacheKey(baseRequest())
	assert.Equal(t, a, again)
}

func TestCachedFetcherDelegatesConfigured(t *testing.T) {
	f, next, _ := newCachedFetcher(t)
	next.On("Configured").Return(ErrMissingAPIKey)
	assert.ErrorIs(t, f.Configured(), ErrMissingAPIKey)
}
