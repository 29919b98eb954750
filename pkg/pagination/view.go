package pagination

// Window is the slice of a collection shown on one page.
// Start is inclusive, End exclusive.
type Window struct {
	Page      int
	PageSize  int
	PageCount int
	Start     int
	End       int
	Length    int
}

// Pagination converts the window into response metadata.
func (w Window) Pagination() *Pagination {
	return &Pagination{
		CurrentPage: w.Page,
		PerPage:     w.PageSize,
		Total:       int64(w.Length),
		TotalPages:  w.PageCount,
		HasNext:     w.Page < w.PageCount,
		HasPrev:     w.Page > 1,
	}
}

// View keeps the page position over an in-memory collection.
// The requested page is clamped against the collection length only when a
// window is computed, so the same view can be reused as the collection changes.
type View struct {
	page     int
	pageSize int
}

// NewView creates a view on page 1 with the given page size.
func NewView(pageSize int) *View {
	v := &View{page: 1}
	v.pageSize = normalizePageSize(pageSize)
	return v
}

// NewViewFromParams builds a view from request pagination parameters.
func NewViewFromParams(p *PaginationParams) *View {
	if p == nil {
		p = DefaultPagination()
	}
	v := NewView(p.PerPage)
	v.SetPage(p.Page)
	return v
}

// Page returns the requested (unclamped) page.
func (v *View) Page() int {
	return v.page
}

// PageSize returns the current page size.
func (v *View) PageSize() int {
	return v.pageSize
}

// SetPage moves the view to a 1-based page.
func (v *View) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	v.page = page
}

// SetPageSize changes the page size. Any change sends the view back to page 1
// so it never lands beyond the last page.
func (v *View) SetPageSize(size int) {
	size = normalizePageSize(size)
	if size == v.pageSize {
		return
	}
	v.pageSize = size
	v.page = 1
}

// Window computes the visible range over a collection of the given length.
func (v *View) Window(length int) Window {
	if length < 0 {
		length = 0
	}
	pageCount := TotalPages(int64(length), v.pageSize)

	page := v.page
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * v.pageSize
	end := start + v.pageSize
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}

	return Window{
		Page:      page,
		PageSize:  v.pageSize,
		PageCount: pageCount,
		Start:     start,
		End:       end,
		Length:    length,
	}
}

// Slice returns the items of a collection that fall inside the window.
func Slice[T any](items []T, w Window) []T {
	if w.Start >= len(items) {
		return []T{}
	}
	end := w.End
	if end > len(items) {
		end = len(items)
	}
	return items[w.Start:end]
}

func normalizePageSize(size int) int {
	if size < 1 {
		return DefaultPerPage
	}
	if size > MaxPerPage {
		return MaxPerPage
	}
	return size
}
