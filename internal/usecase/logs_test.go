package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domrepo "TickerBot/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path string, n int, prefix string) {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%s %d\n", prefix, i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestLogsTailLive(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "development.log"), 50, "line")

	uc := NewLogsUseCase(filepath.Join(dir, "development.log"))

	out, err := uc.Tail(context.Background(), 20, 0)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 20)
	assert.Equal(t, "line 31", lines[0])
	assert.Equal(t, "line 50", lines[19])

	out, err = uc.Tail(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 10)

	out, err = uc.Tail(context.Background(), 1000, 0)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 50)
	assert.Equal(t, "development.log", uc.FileName())
}

func TestLogsTailHugeLineCount(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "development.log"), 2, "line")
	uc := NewLogsUseCase(filepath.Join(dir, "development.log"))

	out, err := uc.Tail(context.Background(), 1<<31, 0)
	require.NoError(t, err)
	assert.Equal(t, "line 1\nline 2\n", out)

	out, err = uc.Tail(context.Background(), 1<<60, 0)
	require.NoError(t, err)
	assert.Equal(t, "line 1\nline 2\n", out)
}

func TestLogsTailCapsLineCount(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "development.log"), MaxLogLines+25, "line")
	uc := NewLogsUseCase(filepath.Join(dir, "development.log"))

	out, err := uc.Tail(context.Background(), MaxLogLines*2, 0)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, MaxLogLines)
	assert.Equal(t, "line 26", lines[0])
	assert.Equal(t, fmt.Sprintf("line %d", MaxLogLines+25), lines[len(lines)-1])
}

func TestLogsTailPreviousDay(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "development.log"), 5, "today")
	writeLines(t, filepath.Join(dir, "development-2025-03-10T00-00-00.000.log"), 5, "march 9")
	writeLines(t, filepath.Join(dir, "development-2025-03-10T09-12-00.000.log"), 5, "march 10 overflow")
	writeLines(t, filepath.Join(dir, "development-2025-03-09T00-00-00.000.log"), 5, "march 8")

	uc := NewLogsUseCase(filepath.Join(dir, "development.log")).WithClock(func() time.Time { return fixedNow })

	out, err := uc.Tail(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "march 9 1\n"))

	out, err = uc.Tail(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "march 8 1\n"))

	_, err = uc.Tail(context.Background(), 10, 5)
	assert.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestLogsMissingLiveFile(t *testing.T) {
	uc := NewLogsUseCase(filepath.Join(t.TempDir(), "nope.log"))
	_, err := uc.Tail(context.Background(), 10, 0)
	assert.ErrorIs(t, err, domrepo.ErrNotFound)
}
