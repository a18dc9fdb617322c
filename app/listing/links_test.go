package listing

import (
	"reflect"
	"testing"
)

func page(n int) PageLink    { return PageLink{Kind: LinkPage, Page: n} }
func current(n int) PageLink { return PageLink{Kind: LinkPage, Page: n, Current: true} }
func prev(n int) PageLink    { return PageLink{Kind: LinkPrevious, Page: n} }
func next(n int) PageLink    { return PageLink{Kind: LinkNext, Page: n} }

var ellipsis = PageLink{Kind: LinkEllipsis}

func TestPageLinks(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		expected []PageLink
	}{
		{
			name:    "middle of many",
			current: 7, total: 20,
			expected: []PageLink{prev(6), page(1), ellipsis, page(5), page(6), current(7), page(8), page(9), ellipsis, page(20), next(8)},
		},
		{
			name:    "first of three",
			current: 1, total: 3,
			expected: []PageLink{current(1), page(2), page(3), next(2)},
		},
		{
			name:    "single page",
			current: 1, total: 1,
			expected: []PageLink{current(1)},
		},
		{
			name:    "window starts at page 2",
			current: 4, total: 6,
			expected: []PageLink{prev(3), page(1), page(2), page(3), current(4), page(5), page(6), next(5)},
		},
		{
			name:    "window ends at penultimate page",
			current: 3, total: 6,
			expected: []PageLink{prev(2), page(1), page(2), current(3), page(4), page(5), page(6), next(4)},
		},
		{
			name:    "last page",
			current: 20, total: 20,
			expected: []PageLink{prev(19), page(1), ellipsis, page(18), page(19), current(20)},
		},
		{
			name:    "current past the end is clamped",
			current: 9, total: 5,
			expected: []PageLink{prev(4), page(1), ellipsis, page(3), page(4), current(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageLinks(tt.current, tt.total)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("PageLinks(%d, %d)\n got: %+v\nwant: %+v", tt.current, tt.total, got, tt.expected)
			}
		})
	}
}

func TestPageLinksNoPages(t *testing.T) {
	if links := PageLinks(1, 0); len(links) != 0 {
		t.Errorf("Expected no links for zero pages, got %+v", links)
	}
}
