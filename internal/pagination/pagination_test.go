package pagination

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	At time.Time
	ID string
}

func rowKey(r row) Key { return Key{r.At, r.ID} }

// sortDesc orders rows by (At desc, ID desc), the order list endpoints use.
func sortDesc(rows []row) {
	sort.Slice(rows, func(i, j int) bool { return Compare(rowKey(rows[i]), rowKey(rows[j])) > 0 })
}

func makeRows(n int, base time.Time) []row {
	rows := make([]row, 0, n)
	for i := 0; i < n; i++ {
		// pairs share a timestamp so the id tie-break matters
		rows = append(rows, row{At: base.Add(time.Duration(i/2) * time.Second), ID: fmt.Sprintf("id-%03d", i)})
	}
	sortDesc(rows)
	return rows
}

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 9, 4, 3, 12, 34, 567890000, time.UTC)
	keys := []Key{
		{ts, "0b6f2f5e-1c3d-4c9a-9d4e-5c1f2b7a8e90"},
		{int64(42)},
		{int64(-9007199254740993), "x"},
		{3.141592653589793, true, false},
		{"", "with spaces & ünïcode"},
		{time.Date(1999, 12, 31, 23, 59, 59, 1, time.UTC)},
	}
	for _, k := range keys {
		tok := Encode(k)
		assert.NotContains(t, tok, "+")
		assert.NotContains(t, tok, "/")
		assert.NotContains(t, tok, "=")

		got := Decode(tok)
		require.Len(t, got, len(k))
		for i := range k {
			if want, ok := k[i].(time.Time); ok {
				gotT, ok := got[i].(time.Time)
				require.True(t, ok)
				assert.True(t, want.Equal(gotT), "time component %d", i)
				continue
			}
			assert.Equal(t, k[i], got[i])
		}
	}
}

func TestCursorIntNormalisedToInt64(t *testing.T) {
	got := Decode(Encode(Key{7}))
	assert.Equal(t, Key{int64(7)}, got)
}

func TestCursorNormalisesTimeZone(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	local := time.Date(2025, 9, 4, 12, 12, 34, 5, kst)
	k := Key{local, 7, "id"}

	got := Decode(Encode(k))
	assert.Equal(t, Normalize(k), got)
	assert.Equal(t, Key{local.UTC(), int64(7), "id"}, got)
	assert.Equal(t, time.UTC, got[0].(time.Time).Location())
	assert.True(t, local.Equal(got[0].(time.Time)))

	// Normalize copies; the input keeps its zone.
	assert.Equal(t, kst, k[0].(time.Time).Location())
	assert.Equal(t, Normalize(k), Normalize(Normalize(k)))

	// Wall-clock readings carry a monotonic component that Normalize drops.
	now := time.Now()
	assert.Equal(t, Normalize(Key{now}), Decode(Encode(Key{now})))
	assert.Nil(t, Normalize(nil))
}

func TestDecodeMalformed(t *testing.T) {
	for _, tok := range []string{"", "   ", "!!!", "bm90LWpzb24", Encode(Key{}), "W1sieiIsIjEiXV0"} {
		assert.Nil(t, Decode(tok), "token %q", tok)
	}
}

func TestDecodeFor(t *testing.T) {
	sample := Key{time.Time{}, ""}
	ts := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	got := DecodeFor(Encode(Key{ts, "abc"}), sample)
	require.Len(t, got, 2)
	assert.Equal(t, "abc", got[1])

	assert.Nil(t, DecodeFor(Encode(Key{"abc", ts}), sample))
	assert.Nil(t, DecodeFor(Encode(Key{ts}), sample))
	assert.Nil(t, DecodeFor("%%%", sample))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit(0, 20, 100))
	assert.Equal(t, 1, ClampLimit(-5, 20, 100))
	assert.Equal(t, 100, ClampLimit(1000, 20, 100))
	assert.Equal(t, 10, ClampLimit(10, 20, 100))
}

func TestPaginateTwentyFiveByTen(t *testing.T) {
	rows := makeRows(25, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	p1 := Paginate(rows, 10, "", rowKey)
	require.Len(t, p1.Items, 10)
	require.True(t, p1.HasMore)
	require.NotNil(t, p1.NextCursor)

	p2 := Paginate(rows, 10, *p1.NextCursor, rowKey)
	require.Len(t, p2.Items, 10)
	require.True(t, p2.HasMore)
	require.NotNil(t, p2.NextCursor)

	p3 := Paginate(rows, 10, *p2.NextCursor, rowKey)
	assert.Len(t, p3.Items, 5)
	assert.False(t, p3.HasMore)
	assert.Nil(t, p3.NextCursor)

	all := append(append(append([]row{}, p1.Items...), p2.Items...), p3.Items...)
	assert.Equal(t, rows, all)
}

func TestPaginateFullTraversalAnyLimit(t *testing.T) {
	rows := makeRows(37, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	for limit := 1; limit <= 40; limit++ {
		var seen []row
		cursor := ""
		for {
			p := Paginate(rows, limit, cursor, rowKey)
			seen = append(seen, p.Items...)
			if !p.HasMore {
				assert.Nil(t, p.NextCursor)
				break
			}
			cursor = *p.NextCursor
		}
		assert.Equal(t, rows, seen, "limit %d", limit)
	}
}

func TestPaginateStableUnderConcurrentInserts(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := makeRows(20, base)
	original := append([]row{}, rows...)

	p := Paginate(rows, 7, "", rowKey)
	seen := append([]row{}, p.Items...)
	for i := 0; p.HasMore; i++ {
		// newer rows land at the top, ahead of every issued cursor
		rows = append(rows, row{At: base.Add(time.Hour + time.Duration(i)*time.Second), ID: fmt.Sprintf("new-%d", i)})
		sortDesc(rows)
		p = Paginate(rows, 7, *p.NextCursor, rowKey)
		seen = append(seen, p.Items...)
	}
	assert.Equal(t, original, seen)
}

func TestPaginateEdgeCases(t *testing.T) {
	empty := Paginate([]row{}, 10, "", rowKey)
	assert.Empty(t, empty.Items)
	assert.False(t, empty.HasMore)
	assert.Nil(t, empty.NextCursor)

	rows := makeRows(3, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	past := Encode(Key{time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), "a"})
	p := Paginate(rows, 10, past, rowKey)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasMore)
	assert.Nil(t, p.NextCursor)

	// a corrupted cursor degrades to the first page
	p = Paginate(rows, 2, "garbage%%", rowKey)
	assert.Equal(t, rows[:2], p.Items)

	// a cursor of the wrong shape degrades to the first page too
	p = Paginate(rows, 2, Encode(Key{int64(5)}), rowKey)
	assert.Equal(t, rows[:2], p.Items)
}

func TestWindow(t *testing.T) {
	rows := makeRows(6, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	p := Window(rows, 5, rowKey)
	assert.Len(t, p.Items, 5)
	assert.True(t, p.HasMore)
	require.NotNil(t, p.NextCursor)
	assert.Equal(t, rowKey(rows[4]), Decode(*p.NextCursor))

	p = Window(rows[:3], 5, rowKey)
	assert.Len(t, p.Items, 3)
	assert.False(t, p.HasMore)
	assert.Nil(t, p.NextCursor)

	p = Window[row](nil, 5, rowKey)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}

func TestMapPage(t *testing.T) {
	cur := "abc"
	p := Page[int]{Items: []int{1, 2}, NextCursor: &cur, HasMore: true}
	out := MapPage(p, func(i int) string { return fmt.Sprint(i * 2) })
	assert.Equal(t, []string{"2", "4"}, out.Items)
	assert.Equal(t, &cur, out.NextCursor)
	assert.True(t, out.HasMore)
}
