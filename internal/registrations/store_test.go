package registrations

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/nmrschool/webinar-backend/internal/models"
)

func sampleRegistration(first string) *models.Registration {
	return &models.Registration{
		FirstName: first,
		LastName:  "Ruiz",
		Email:     first + "@example.com",
		CreatedAt: time.Date(2025, time.October, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "registrants.json")
	s := OpenFileStore(path, nil)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.DirExists(t, filepath.Dir(path))
}

func TestFileStore_CorruptFileStartsEmptyAndLogs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "registrants.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	core, logs := observer.New(zap.ErrorLevel)
	s := OpenFileStore(path, zap.New(core))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 1, logs.FilterMessage("parse registrations file failed, starting empty").Len())
}

func TestFileStore_AppendIsMostRecentFirstAndDurable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registrants.json")
	s := OpenFileStore(path, nil)

	require.NoError(t, s.Append(ctx, sampleRegistration("ana")))
	require.NoError(t, s.Append(ctx, sampleRegistration("luis")))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "luis", list[0].FirstName)
	assert.Equal(t, "ana", list[1].FirstName)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk []map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	require.Len(t, onDisk, 2)
	assert.Equal(t, "luis", onDisk[0]["firstName"])
	assert.Equal(t, "", onDisk[0]["phone"])
	assert.Equal(t, false, onDisk[0]["moreInfo"])
	assert.NoFileExists(t, path+".tmp")

	reopened := OpenFileStore(path, nil)
	again, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again)
}

func TestFileStore_WriteFailureKeepsRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "registrants.json")
	s := OpenFileStore(path, nil)
	// A directory where the temp file should go makes the write fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0750))

	err := s.Append(context.Background(), sampleRegistration("ana"))
	require.ErrorIs(t, err, ErrPersistence)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ana", list[0].FirstName)
}

func TestFileStore_ListReturnsCopy(t *testing.T) {
	t.Parallel()

	s := OpenFileStore(filepath.Join(t.TempDir(), "r.json"), nil)
	require.NoError(t, s.Append(context.Background(), sampleRegistration("ana")))

	list, _ := s.List(context.Background())
	list[0].FirstName = "mutated"

	again, _ := s.List(context.Background())
	assert.Equal(t, "ana", again[0].FirstName)
}

func TestFileStore_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registrants.json")
	s := OpenFileStore(path, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, sampleRegistration("p")))
		}()
	}
	wg.Wait()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n)

	reopened, err := OpenFileStore(path, nil).List(ctx)
	require.NoError(t, err)
	assert.Len(t, reopened, n)
}

func TestFileStore_AppendThenListProperty(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		f, err := os.CreateTemp(dir, "prop-*.json")
		if err != nil {
			rt.Fatalf("temp file: %v", err)
		}
		_ = f.Close()
		_ = os.Remove(f.Name())
		s := OpenFileStore(f.Name(), nil)

		reg := &models.Registration{
			FirstName: rapid.StringMatching(`\S.{0,20}`).Draw(rt, "first"),
			LastName:  rapid.StringMatching(`\S.{0,20}`).Draw(rt, "last"),
			Email:     rapid.StringMatching(`[a-z]{1,8}@[a-z]{1,8}\.com`).Draw(rt, "email"),
			Phone:     rapid.String().Draw(rt, "phone"),
			MoreInfo:  rapid.Bool().Draw(rt, "moreInfo"),
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
		if err := s.Append(ctx, reg); err != nil {
			rt.Fatalf("append: %v", err)
		}
		list, _ := s.List(ctx)
		if len(list) != 1 || list[0] != *reg {
			rt.Fatalf("got %+v, want %+v", list, *reg)
		}
	})
}
