package feed

import (
	"math"
	"testing"
	"time"
)

func fixedParser(now time.Time) *Parser {
	p := NewParser()
	p.now = func() time.Time { return now }
	return p
}

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>Test Item 1 Description</description>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
      <guid>item-2</guid>
      <pubDate>Mon, 03 Jul 2023 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	doc, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", doc.Title)
	}
	if doc.Len() != 2 {
		t.Fatalf("Expected 2 items, got: %d", doc.Len())
	}

	items := doc.Items(0, 10)

	// Newest entry comes first
	if items[0].Title != "Test Item 2" {
		t.Errorf("Expected newest item first, got: %s", items[0].Title)
	}
	if items[0].Link != "https://example.com/item2" {
		t.Errorf("Expected link 'https://example.com/item2', got: %s", items[0].Link)
	}
	if items[0].Description != "Test Item 2 Description" {
		t.Errorf("Expected description 'Test Item 2 Description', got: %s", items[0].Description)
	}

	expectedDate := time.Date(2023, 7, 3, 11, 0, 0, 0, time.UTC)
	if !items[0].Published.Equal(expectedDate) {
		t.Errorf("Expected published %v, got %v", expectedDate, items[0].Published)
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <id>urn:uuid:60a76c80-d399-11d9-b93C-0003939e0af6</id>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.com/entry1"/>
    <id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
    <updated>2023-07-03T10:00:00Z</updated>
    <summary>Atom entry summary</summary>
  </entry>
</feed>`

	parser := NewParser()
	doc, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items := doc.Items(0, 10)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}
	if items[0].Link != "https://example.com/entry1" {
		t.Errorf("Expected link 'https://example.com/entry1', got: %s", items[0].Link)
	}

	// Updated is used when no published date exists
	expectedDate := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !items[0].Published.Equal(expectedDate) {
		t.Errorf("Expected published %v, got %v", expectedDate, items[0].Published)
	}
}

func TestParseMissingPublishDateFallsBackToNow(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Undated</title>
    <item>
      <title>No Date</title>
      <link>https://example.com/nodate</link>
    </item>
  </channel>
</rss>`

	now := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	doc, err := fixedParser(now).Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items := doc.Items(0, 1)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}
	if !items[0].Published.Equal(now) {
		t.Errorf("Expected published to fall back to %v, got %v", now, items[0].Published)
	}
}

func TestParseGUIDPermalinkUsedAsLink(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>GUID only</title>
    <item>
      <title>Permalink</title>
      <guid isPermaLink="true">https://example.com/permalink</guid>
    </item>
  </channel>
</rss>`

	doc, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items := doc.Items(0, 1)
	if len(items) != 1 || items[0].Link != "https://example.com/permalink" {
		t.Errorf("Expected GUID permalink as link, got %+v", items)
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser()
	_, err := parser.Run([]byte("invalid xml"))

	if err == nil {
		t.Error("Expected error for invalid XML")
	}
}

func TestDocumentItemsWindow(t *testing.T) {
	entries := make([]Entry, 15)
	for i := range entries {
		entries[i] = Entry{Title: string(rune('a' + i))}
	}
	doc := NewDocument("", "", entries)

	tests := []struct {
		name     string
		offset   int
		limit    int
		expected int
	}{
		{"first window", 0, 10, 10},
		{"tail window", 10, 10, 5},
		{"past end", 15, 10, 0},
		{"negative offset", -1, 10, 0},
		{"zero limit", 0, 0, 0},
		{"unbounded limit", 0, math.MaxInt, 15},
		{"unbounded limit from tail", 14, math.MaxInt, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(doc.Items(tt.offset, tt.limit)); got != tt.expected {
				t.Errorf("Expected %d entries, got %d", tt.expected, got)
			}
		})
	}

	window := doc.Items(0, 1)
	window[0].Title = "changed"
	if doc.Items(0, 1)[0].Title != "a" {
		t.Error("Expected Items to return a copy")
	}

	var empty *Document
	if empty.Len() != 0 || len(empty.Items(0, 10)) != 0 {
		t.Error("Expected nil document to be empty")
	}
}
