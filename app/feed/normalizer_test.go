package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/feedsink/app/logsink"
)

func TestNormalizerTitle(t *testing.T) {
	n := NewNormalizer(logsink.Nop())

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Hello World", "Hello World"},
		{"markup", "<b>Breaking</b> <i>news</i>", "Breaking news"},
		{"whitespace", "  spaced \n\t out  ", "spaced out"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"empty", "   ", ""},
		{"gbk", "\xd6\xd0\xce\xc4", "中文"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Title(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizerDescriptionKeepsSafeSubset(t *testing.T) {
	n := NewNormalizer(logsink.Nop())

	got := n.Description(`  <p>Hello <strong>world</strong></p><script>alert(1)</script><img src="x" onerror="alert(1)">  `)

	if strings.Contains(got, "<script") {
		t.Errorf("Expected script to be removed, got %q", got)
	}
	if strings.Contains(got, "onerror") {
		t.Errorf("Expected event handler to be removed, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Errorf("Expected safe markup to survive, got %q", got)
	}
	if strings.HasPrefix(got, " ") || strings.HasSuffix(got, " ") {
		t.Errorf("Expected trimmed output, got %q", got)
	}
}

func TestCoerceUTF8(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"utf8 passthrough", "héllo 中文", "héllo 中文"},
		{"gbk", "\xc4\xe3\xba\xc3", "你好"},
		{"undecodable", "\xff\xff", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coerceUTF8(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizerEntriesDropsEmpty(t *testing.T) {
	n := NewNormalizer(logsink.Nop())
	published := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := n.Entries([]Entry{
		{Title: "<em>Kept</em>", Link: " https://example.com/a ", Published: published},
		{Title: "  ", Link: "", Description: "orphan"},
		{Title: "", Link: "https://example.com/no-title"},
	})

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "Kept" || entries[0].Link != "https://example.com/a" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if !entries[0].Published.Equal(published) {
		t.Errorf("Expected published date to be preserved, got %v", entries[0].Published)
	}
	if entries[1].Title != "" || entries[1].Link != "https://example.com/no-title" {
		t.Errorf("Expected entry with link only to be kept, got %+v", entries[1])
	}
}
