package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"instancecat/internal/domain"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := PathIn(t.TempDir())
	store, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func record(name string, vcpu int64) domain.InstanceType {
	return domain.InstanceType{Name: name, Family: "General purpose", Memory: vcpu << 32, VCPU: vcpu}
}

func TestStoreReplaceAllDiff(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	stats, err := store.ReplaceAll(ctx, []domain.InstanceType{record("a", 1), record("b", 2), record("c", 4)})
	require.NoError(t, err)
	assert.Equal(t, domain.ReplaceStats{Upserted: 3, Total: 3}, stats)

	stats, err = store.ReplaceAll(ctx, []domain.InstanceType{record("b", 2), record("c", 4), record("d", 8)})
	require.NoError(t, err)
	assert.Equal(t, domain.ReplaceStats{Upserted: 1, Unchanged: 2, Deleted: 1, Total: 3}, stats)

	got, err := store.List(ctx)
	require.NoError(t, err)
	want := []domain.InstanceType{record("b", 2), record("c", 4), record("d", 8)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}

	_, err = store.Get(ctx, "a")
	require.ErrorIs(t, err, domain.ErrInstanceTypeNotFound)

	d, err := store.Get(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, record("d", 8), d)
}

func TestStoreReplaceAllChangedValue(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	_, err := store.ReplaceAll(ctx, []domain.InstanceType{record("a", 1)})
	require.NoError(t, err)
	stats, err := store.ReplaceAll(ctx, []domain.InstanceType{record("a", 2)})
	require.NoError(t, err)
	assert.Equal(t, domain.ReplaceStats{Upserted: 1, Total: 1}, stats)

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.VCPU)
}

func TestStoreReplaceAllEmptyClears(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	_, err := store.ReplaceAll(ctx, []domain.InstanceType{record("a", 1), record("b", 1)})
	require.NoError(t, err)
	stats, err := store.ReplaceAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Deleted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreReplaceAllRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	_, err := store.ReplaceAll(ctx, []domain.InstanceType{record("a", 1)})
	require.NoError(t, err)

	_, err = store.ReplaceAll(ctx, []domain.InstanceType{record("b", 1), record(" ", 1)})
	require.Error(t, err)

	// Nothing from the rejected batch was applied.
	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.InstanceType{record("a", 1)}, got)
}

func TestStoreReplaceAllDuplicateFirstWins(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	stats, err := store.ReplaceAll(ctx, []domain.InstanceType{record("a", 1), record("a", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.VCPU)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "instance-types.db")

	store, err := Open(path, nil)
	require.NoError(t, err)
	_, err = store.ReplaceAll(ctx, []domain.InstanceType{record("m5.large", 2)})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "m5.large")
	require.NoError(t, err)
	assert.Equal(t, record("m5.large", 2), got)
	updatedAt, err := reopened.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.False(t, updatedAt.IsZero())
	require.NoError(t, reopened.Close())

	readOnly, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, readOnly.Close())
	}()
	count, err := readOnly.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	_, err = readOnly.ReplaceAll(ctx, nil)
	require.Error(t, err)
}

func TestOpenRejectsUnknownSchemaVersion(t *testing.T) {
	for _, version := range []int{2, 7} {
		t.Run(fmt.Sprintf("v%d", version), func(t *testing.T) {
			path := PathIn(t.TempDir())
			db, err := bolt.Open(path, 0o600, nil)
			require.NoError(t, err)
			require.NoError(t, db.Update(func(tx *bolt.Tx) error {
				meta, err := tx.CreateBucket([]byte(metaBucketName))
				if err != nil {
					return err
				}
				return writeSchemaVersion(meta, version)
			}))
			require.NoError(t, db.Close())

			_, err = Open(path, nil)
			require.ErrorContains(t, err, fmt.Sprintf("unsupported catalog schema version %d", version))
		})
	}
}

func TestOpenReadOnlyMissingFile(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.List(ctx)
	require.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = store.Get(ctx, "a")
	require.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = store.ReplaceAll(ctx, nil)
	require.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestStoreConcurrentReadsNeverTorn(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	snapshot := func(vcpu int64) []domain.InstanceType {
		records := make([]domain.InstanceType, 0, 50)
		for i := 0; i < 50; i++ {
			records = append(records, record(fmt.Sprintf("type-%02d", i), vcpu))
		}
		return records
	}
	_, err := store.ReplaceAll(ctx, snapshot(1))
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				records, err := store.List(ctx)
				if !assert.NoError(t, err) || !assert.Len(t, records, 50) {
					return
				}
				first := records[0].VCPU
				for _, rec := range records {
					if !assert.Equal(t, first, rec.VCPU, "mixed catalog versions observed") {
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		_, err := store.ReplaceAll(ctx, snapshot(int64(i%2+1)))
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()
}
