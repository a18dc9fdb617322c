package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
	now          func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		now:          time.Now,
	}
}

// Run parses RSS, Atom or JSON feed data into a Document with entries sorted newest first
func (p *Parser) Run(data []byte) (*Document, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := p.now().UTC()
	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.toEntry(item, now))
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Published.Compare(a.Published)
	})

	return NewDocument(feed.Title, feed.Link, entries), nil
}

func (p *Parser) toEntry(item *gofeed.Item, now time.Time) Entry {
	entry := Entry{
		Title:       item.Title,
		Link:        item.Link,
		Description: cmp.Or(item.Description, item.Content),
		Published:   now,
	}

	if item.Link == "" && isPermalink(item.GUID) {
		entry.Link = item.GUID
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published != nil && published.Unix() > 0 {
		entry.Published = published.UTC()
	}

	return entry
}

func isPermalink(guid string) bool {
	return len(guid) > 8 && (guid[:7] == "http://" || guid[:8] == "https://")
}
