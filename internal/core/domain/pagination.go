package domain

const (
	DefaultStoreFileLimit = 20
	pageWindowRadius      = 3
)

// TotalPages is ceil(total/limit), never below 1.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		limit = DefaultStoreFileLimit
	}
	if total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

type PageItemKind string

const (
	PageItemPrev     PageItemKind = "prev"
	PageItemNext     PageItemKind = "next"
	PageItemNumber   PageItemKind = "page"
	PageItemEllipsis PageItemKind = "ellipsis"
)

type PageItem struct {
	Kind   PageItemKind
	Page   int
	Active bool
}

// PageWindow lays out pagination controls: up to seven numbered pages centred on
// current, with first/last shortcuts behind an ellipsis when the window does not
// reach the bounds. Nothing is rendered for a single page.
func PageWindow(current, total int) []PageItem {
	if total <= 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	items := make([]PageItem, 0, 2*pageWindowRadius+7)
	if current > 1 {
		items = append(items, PageItem{Kind: PageItemPrev, Page: current - 1})
	}

	start := max(1, current-pageWindowRadius)
	end := min(total, current+pageWindowRadius)
	if start > 1 {
		items = append(items,
			PageItem{Kind: PageItemNumber, Page: 1},
			PageItem{Kind: PageItemEllipsis},
		)
	}
	for p := start; p <= end; p++ {
		items = append(items, PageItem{Kind: PageItemNumber, Page: p, Active: p == current})
	}
	if end < total {
		items = append(items,
			PageItem{Kind: PageItemEllipsis},
			PageItem{Kind: PageItemNumber, Page: total},
		)
	}

	if current < total {
		items = append(items, PageItem{Kind: PageItemNext, Page: current + 1})
	}
	return items
}
