package logsink

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSinkDisabledByDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := New(Config{Dir: dir})

	sink.Write("fetcher", "should not be written")

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Expected log directory not to be created when disabled, got err=%v", err)
	}
}

func TestSinkWritesTaggedLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := New(Config{Dir: dir, Debug: true})
	defer sink.Close()

	sink.Write("fetcher", "fetched 3 entries")
	sink.Writef("store", "inserted item %d", 42)

	data, err := os.ReadFile(sink.Path())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), string(data))
	}

	linePattern := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[(\w+)\] (.+)$`)

	m := linePattern.FindStringSubmatch(lines[0])
	if m == nil {
		t.Fatalf("Unexpected line format: %q", lines[0])
	}
	if m[1] != "fetcher" || m[2] != "fetched 3 entries" {
		t.Errorf("Unexpected first line: %q", lines[0])
	}

	m = linePattern.FindStringSubmatch(lines[1])
	if m == nil || m[1] != "store" || m[2] != "inserted item 42" {
		t.Errorf("Unexpected second line: %q", lines[1])
	}
}

func TestSinkSeedsPlaceholderAndRestrictsMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := New(Config{Dir: dir, Force: true})
	defer sink.Close()

	sink.Write("orchestrator", "run started")

	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		t.Errorf("Expected placeholder file to be seeded: %v", err)
	}

	info, err := os.Stat(sink.Path())
	if err != nil {
		t.Fatalf("Expected log file to exist: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected log file mode 0600, got %o", perm)
	}
}

func TestSinkConcurrentWritesDoNotInterleave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := New(Config{Dir: dir, Debug: true})
	defer sink.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				sink.Write("worker", strings.Repeat("x", 200))
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(sink.Path())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 400 {
		t.Fatalf("Expected 400 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !strings.HasSuffix(line, "[worker] "+strings.Repeat("x", 200)) {
			t.Fatalf("Line %d is malformed: %q", i, line)
		}
	}
}

func TestSinkRotatesAndCompresses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := New(Config{Dir: dir, Debug: true, MaxSize: 1})
	defer sink.Close()

	chunk := strings.Repeat("y", 1024)
	for i := 0; i < 1100; i++ {
		sink.Write("rotate", chunk)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		matches, _ := filepath.Glob(filepath.Join(dir, "feedsink-*.log.gz"))
		if len(matches) > 0 {
			break
		}
		if time.Now().After(deadline) {
			entries, _ := os.ReadDir(dir)
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			t.Fatalf("Expected a compressed rotated file, found %v", names)
		}
		time.Sleep(50 * time.Millisecond)
	}

	info, err := os.Stat(sink.Path())
	if err != nil {
		t.Fatalf("Expected active log file after rotation: %v", err)
	}
	if info.Size() >= 1024*1024 {
		t.Errorf("Expected active log file to be below the rotation threshold, got %d bytes", info.Size())
	}
}

func TestSinkReportsFailuresToFallback(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fallback bytes.Buffer
	sink := New(Config{Dir: filepath.Join(blocker, "logs"), Debug: true, Fallback: &fallback})

	sink.Write("fetcher", "this cannot be written")
	sink.Write("fetcher", "nor this")

	if !strings.Contains(fallback.String(), "create log directory") {
		t.Errorf("Expected directory failure on fallback channel, got %q", fallback.String())
	}
}

func TestNilSinkIsSafe(t *testing.T) {
	var sink *Sink
	sink.Write("fetcher", "ignored")
	sink.Writef("fetcher", "ignored %d", 1)
	sink.Close()
}

func TestSinkFlattensLineBreaks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := New(Config{Dir: dir, Debug: true})
	defer sink.Close()

	sink.Write("fetcher", "parse failed:\nline 2\r\nline 3\rline 4")

	data, err := os.ReadFile(sink.Path())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), string(data))
	}
	if !strings.HasSuffix(lines[0], "[fetcher] parse failed: line 2 line 3 line 4") {
		t.Errorf("Unexpected line: %q", lines[0])
	}
	if strings.Contains(lines[0], "\r") {
		t.Errorf("Expected carriage returns to be removed: %q", lines[0])
	}
}

func TestSinkReportsUncompressedRotations(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	leftover := filepath.Join(dir, "feedsink-2026-01-01T00-00-00.000.log")
	if err := os.WriteFile(leftover, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "feedsink-2026-01-02T00-00-00.000.log.gz"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	var fallback bytes.Buffer
	sink := New(Config{Dir: dir, Debug: true, Fallback: &fallback})
	sink.Write("orchestrator", "run started")
	sink.Close()

	out := fallback.String()
	if !strings.Contains(out, leftover+" was not compressed") {
		t.Errorf("Expected leftover rotation to be reported, got %q", out)
	}
	if strings.Contains(out, ".gz") {
		t.Errorf("Expected compressed rotations to be ignored, got %q", out)
	}
}

func TestSinkCloseDuringFirstWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := New(Config{Dir: dir, Debug: true})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sink.Write("fetcher", "first")
	}()
	go func() {
		defer wg.Done()
		sink.Close()
	}()
	wg.Wait()

	sink.Close()
}
