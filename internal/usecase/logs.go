package usecase

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	domrepo "TickerBot/internal/domain/repository"
)

const (
	DefaultLogLines = 1000
	MaxLogLines     = 10000
	minLogLines     = 10
)

// LogsUseCase tails the application log file of a given day.
type LogsUseCase struct {
	dir  string
	base string
	now  func() time.Time
}

// NewLogsUseCase serves logs written to livePath, e.g. data/development.log.
func NewLogsUseCase(livePath string) *LogsUseCase {
	name := filepath.Base(livePath)
	return &LogsUseCase{
		dir:  filepath.Dir(livePath),
		base: strings.TrimSuffix(name, filepath.Ext(name)),
		now:  time.Now,
	}
}

// WithClock replaces the clock, for tests.
func (uc *LogsUseCase) WithClock(now func() time.Time) *LogsUseCase {
	uc.now = now
	return uc
}

// Path resolves the file holding day today-prev. Rotation happens at 00:00 UTC
// and stamps the backup with the rotation time, so day D lives in the first
// backup stamped D+1.
func (uc *LogsUseCase) Path(prev int) (string, error) {
	live := filepath.Join(uc.dir, uc.base+".log")
	if prev <= 0 {
		if _, err := os.Stat(live); err != nil {
			return live, fmt.Errorf("log file %q: %w", live, domrepo.ErrNotFound)
		}
		return live, nil
	}

	day := uc.now().UTC().AddDate(0, 0, -prev+1)
	pattern := filepath.Join(uc.dir, fmt.Sprintf("%s-%sT*.log", uc.base, day.Format("2006-01-02")))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return pattern, fmt.Errorf("log file %q: %w", pattern, domrepo.ErrNotFound)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// Tail returns the last lines of the selected file, clamped to [10, MaxLogLines].
func (uc *LogsUseCase) Tail(ctx context.Context, lines, prev int) (string, error) {
	lines = clampLines(lines)

	path, err := uc.Path(prev)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	// The ring grows with the file, so short files stay small.
	var ring []string
	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if n%4096 == 0 && ctx.Err() != nil {
			return "", ctx.Err()
		}
		if len(ring) < lines {
			ring = append(ring, sc.Text())
		} else {
			ring[n%lines] = sc.Text()
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read log file: %w", err)
	}

	var b strings.Builder
	for i := n - len(ring); i < n; i++ {
		b.WriteString(ring[i%lines])
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func clampLines(lines int) int {
	switch {
	case lines < minLogLines:
		return minLogLines
	case lines > MaxLogLines:
		return MaxLogLines
	default:
		return lines
	}
}

// FileName is the name shown in the Content-Disposition header.
func (uc *LogsUseCase) FileName() string {
	return uc.base + ".log"
}
