package pagination

// Limits applied to list endpoints unless a handler overrides them.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is one slice of a listing. NextCursor is nil when HasMore is false.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Request carries the client-supplied paging parameters.
type Request struct {
	Limit  int
	Cursor string
}

// ClampLimit applies def when limit is unset and bounds the result to [1, max].
func ClampLimit(limit, def, max int) int {
	if limit == 0 {
		limit = def
	}
	if limit < 1 {
		limit = 1
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}

// Paginate returns the page following cursor from items, which must already
// be sorted descending by keyOf with ties broken by the last component.
//
// The page starts at the first item whose key is strictly less than the
// cursor key, so rows inserted ahead of the cursor never shift the window.
func Paginate[T any](items []T, limit int, cursor string, keyOf func(T) Key) Page[T] {
	if limit < 1 {
		limit = 1
	}
	start := 0
	if last := Decode(cursor); last != nil && len(items) > 0 && compatible(last, keyOf(items[0])) {
		start = len(items)
		for i, it := range items {
			if Compare(keyOf(it), last) < 0 {
				start = i
				break
			}
		}
	}

	end := min(start+limit, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])

	page := Page[T]{Items: out, HasMore: start+limit < len(items)}
	if page.HasMore && len(out) > 0 {
		next := Encode(keyOf(out[len(out)-1]))
		page.NextCursor = &next
	}
	return page
}

// Window builds a page from rows fetched with LIMIT limit+1 by a keyset query
// (WHERE key < cursor ORDER BY key DESC). The extra row only signals HasMore.
func Window[T any](rows []T, limit int, keyOf func(T) Key) Page[T] {
	if limit < 1 {
		limit = 1
	}
	page := Page[T]{HasMore: len(rows) > limit}
	if page.HasMore {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []T{}
	}
	page.Items = rows
	if page.HasMore {
		next := Encode(keyOf(rows[len(rows)-1]))
		page.NextCursor = &next
	}
	return page
}

// MapPage converts the items of p, keeping cursor and HasMore.
func MapPage[T, U any](p Page[T], f func(T) U) Page[U] {
	out := Page[U]{Items: make([]U, 0, len(p.Items)), NextCursor: p.NextCursor, HasMore: p.HasMore}
	for _, it := range p.Items {
		out.Items = append(out.Items, f(it))
	}
	return out
}
