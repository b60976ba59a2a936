package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func TestMapWatcher_Check(t *testing.T) {
	dir := t.TempDir()
	upper := filepath.Join(dir, "upper.yaml")
	lower := filepath.Join(dir, "lower.json")
	require.NoError(t, os.WriteFile(upper, []byte("name: u"), 0o644))
	require.NoError(t, os.WriteFile(lower, []byte("{}"), 0o644))
	base := time.Now().Add(-time.Hour)
	touch(t, upper, base)
	touch(t, lower, base)

	w := NewMapWatcher(map[string]string{"upper": upper, "lower": lower, "gone": filepath.Join(dir, "gone.json")}, time.Hour)
	assert.Empty(t, w.Check())

	touch(t, lower, base.Add(time.Minute))
	touch(t, upper, base.Add(time.Minute))
	assert.Equal(t, []string{"lower", "upper"}, w.Check())
	assert.Empty(t, w.Check(), "a change is reported once")

	// A missing file shows up once it is created.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gone.json"), []byte("{}"), 0o644))
	assert.Equal(t, []string{"gone"}, w.Check())
}

func TestMapWatcher_ResetBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: u"), 0o644))
	base := time.Now().Add(-time.Hour)
	touch(t, path, base)

	w := NewMapWatcher(map[string]string{"upper": path}, time.Hour)
	touch(t, path, base.Add(time.Minute))
	w.ResetBaseline("upper")
	assert.Empty(t, w.Check())
}

func TestMapWatcher_StartNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: u"), 0o644))
	base := time.Now().Add(-time.Hour)
	touch(t, path, base)

	w := NewMapWatcher(map[string]string{"upper": path}, 10*time.Millisecond)
	got := make(chan string, 1)
	w.OnChange(func(view string) {
		select {
		case got <- view:
		default:
		}
	})
	require.True(t, w.Start())
	defer w.Stop()

	touch(t, path, base.Add(time.Minute))
	select {
	case view := <-got:
		assert.Equal(t, "upper", view)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestMapWatcher_NonPositiveIntervalDisables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: u"), 0o644))

	for _, interval := range []time.Duration{0, -time.Second} {
		w := NewMapWatcher(map[string]string{"upper": path}, interval)
		assert.NotPanics(t, func() {
			assert.False(t, w.Start(), "interval %s", interval)
			w.Stop()
		})
	}
}
