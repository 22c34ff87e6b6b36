package repo

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/campuspulse-backend/internal/config"
	"github.com/tbourn/campuspulse-backend/internal/domain"
)

var errNoIndex = errors.New("the query requires an index")

var testNow = time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)

func TestListWithFallback(t *testing.T) {
	recs := []domain.Complaint{{ID: "a"}, {ID: "b"}}
	always := func(error) bool { return true }

	t.Run("ordered success", func(t *testing.T) {
		var calls []bool
		out, err := listWithFallback(context.Background(), true, func(ordered bool) ([]domain.Complaint, error) {
			calls = append(calls, ordered)
			return recs, nil
		}, always)
		require.NoError(t, err)
		assert.Equal(t, recs, out)
		assert.Equal(t, []bool{true}, calls)
	})

	t.Run("unordered requested", func(t *testing.T) {
		var calls []bool
		_, err := listWithFallback(context.Background(), false, func(ordered bool) ([]domain.Complaint, error) {
			calls = append(calls, ordered)
			return recs, nil
		}, always)
		require.NoError(t, err)
		assert.Equal(t, []bool{false}, calls)
	})

	t.Run("order unavailable degrades", func(t *testing.T) {
		before := testutil.ToFloat64(orderFallbacks)
		var calls []bool
		out, err := listWithFallback(context.Background(), true, func(ordered bool) ([]domain.Complaint, error) {
			calls = append(calls, ordered)
			if ordered {
				return nil, errNoIndex
			}
			return recs, nil
		}, func(err error) bool { return errors.Is(err, errNoIndex) })
		require.NoError(t, err)
		assert.Equal(t, recs, out)
		assert.Equal(t, []bool{true, false}, calls)
		assert.Equal(t, before+1, testutil.ToFloat64(orderFallbacks))
	})

	t.Run("other errors are returned", func(t *testing.T) {
		boom := errors.New("permission denied")
		calls := 0
		_, err := listWithFallback(context.Background(), true, func(bool) ([]domain.Complaint, error) {
			calls++
			return nil, boom
		}, func(err error) bool { return errors.Is(err, errNoIndex) })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("unreachable store is not retried", func(t *testing.T) {
		for _, cause := range []error{
			context.DeadlineExceeded,
			fmt.Errorf("query: %w", driver.ErrBadConn),
			&net.OpError{Op: "dial", Err: errors.New("connection refused")},
		} {
			calls := 0
			_, err := listWithFallback(context.Background(), true, func(bool) ([]domain.Complaint, error) {
				calls++
				return nil, cause
			}, always)
			assert.ErrorIs(t, err, cause)
			assert.Equal(t, 1, calls, "cause %v", cause)
		}
	})

	t.Run("cancelled context is not retried", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		_, err := listWithFallback(ctx, true, func(bool) ([]domain.Complaint, error) {
			calls++
			return nil, errNoIndex
		}, always)
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("unordered failure is returned", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := listWithFallback(context.Background(), true, func(ordered bool) ([]domain.Complaint, error) {
			if ordered {
				return nil, errNoIndex
			}
			return nil, boom
		}, always)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil result becomes empty", func(t *testing.T) {
		out, err := listWithFallback(context.Background(), true, func(bool) ([]domain.Complaint, error) {
			return nil, nil
		}, always)
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})
}

// fakeCollection serves purgeBatches from an in-memory slice.
type fakeCollection struct {
	recs     []domain.Complaint
	failNext error
	failDel  error
}

func (f *fakeCollection) next(limit int) ([]domain.Complaint, error) {
	if f.failNext != nil {
		return nil, f.failNext
	}
	if limit > len(f.recs) {
		limit = len(f.recs)
	}
	return append([]domain.Complaint(nil), f.recs[:limit]...), nil
}

func (f *fakeCollection) del(recs []domain.Complaint) error {
	if f.failDel != nil {
		return f.failDel
	}
	f.recs = f.recs[len(recs):]
	return nil
}

func seeded(n int) *fakeCollection {
	f := &fakeCollection{}
	for i := 0; i < n; i++ {
		f.recs = append(f.recs, domain.Complaint{ID: fmt.Sprintf("c%d", i)})
	}
	return f
}

func TestPurgeBatches_Counts(t *testing.T) {
	cases := []struct {
		n, batch, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 1, 5},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d/%d", tc.n, tc.batch), func(t *testing.T) {
			f := seeded(tc.n)
			deleted := 0
			got, err := purgeBatches(tc.batch, func(domain.Complaint) { deleted++ }, f.next, f.del)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.n, deleted)
			assert.Empty(t, f.recs)
		})
	}
}

func TestPurgeBatches_Errors(t *testing.T) {
	_, err := purgeBatches(0, nil, seeded(1).next, seeded(1).del)
	assert.ErrorIs(t, err, ErrBatchSize)

	boom := errors.New("boom")
	f := seeded(3)
	f.failDel = boom
	got, err := purgeBatches(2, nil, f.next, f.del)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, got)

	f = seeded(3)
	f.failNext = boom
	_, err = purgeBatches(2, nil, f.next, f.del)
	assert.ErrorIs(t, err, boom)
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.StoreConfig{Driver: config.DriverSQLite, DBPath: t.TempDir() + "/complaints.db", Collection: "complaints"}
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	c := complaintAt("heating broken", testNow)
	_, err = store.Create(context.Background(), &c)
	require.NoError(t, err)

	out, err := store.ListAll(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestOpen_SQLiteHonoursCollection(t *testing.T) {
	cfg := config.StoreConfig{Driver: config.DriverSQLite, DBPath: t.TempDir() + "/complaints.db", Collection: "complaints_archive"}
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	sg, ok := store.(*SQLGateway)
	require.True(t, ok)
	assert.Equal(t, "complaints_archive", sg.Table())

	_, err = Open(context.Background(), config.StoreConfig{Driver: config.DriverSQLite, DBPath: t.TempDir() + "/x.db", Collection: "bad name"})
	assert.ErrorContains(t, err, "invalid table name")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "cassandra"})
	assert.ErrorContains(t, err, "unknown store driver")
}
