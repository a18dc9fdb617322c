package listing

// PageLinks builds the navigation for current out of total pages: previous,
// first page and ellipsis, a window of up to five pages around current, ellipsis
// and last page, next. current is clamped into [1, total].
func PageLinks(current, total int) []PageLink {
	if total <= 0 {
		return nil
	}
	current = min(max(current, 1), total)

	start := max(1, current-windowRadius)
	end := min(total, current+windowRadius)

	links := make([]PageLink, 0, end-start+7)

	if current > 1 {
		links = append(links, PageLink{Kind: LinkPrevious, Page: current - 1})
	}

	if start > 1 {
		links = append(links, PageLink{Kind: LinkPage, Page: 1})
		if start > 2 {
			links = append(links, PageLink{Kind: LinkEllipsis})
		}
	}

	for p := start; p <= end; p++ {
		links = append(links, PageLink{Kind: LinkPage, Page: p, Current: p == current})
	}

	if end < total {
		if end < total-1 {
			links = append(links, PageLink{Kind: LinkEllipsis})
		}
		links = append(links, PageLink{Kind: LinkPage, Page: total})
	}

	if current < total {
		links = append(links, PageLink{Kind: LinkNext, Page: current + 1})
	}

	return links
}
