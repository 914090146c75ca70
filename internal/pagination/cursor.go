// Package pagination implements keyset (seek) pagination over collections
// sorted in descending order by a composite key, together with the opaque
// cursor format shared by every list endpoint.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key is an ordered tuple of scalar sort values. Supported component types
// are string, int64, float64, bool and time.Time. Encode stores int as int64
// and times in UTC, so Decode(Encode(k)) is deep-equal to Normalize(k), and
// equal to k itself only when k is already normalised.
type Key []any

// Normalize returns a copy of k in the form Decode produces: int becomes
// int64 and times are converted to UTC without a monotonic reading.
func Normalize(k Key) Key {
	if k == nil {
		return nil
	}
	out := make(Key, len(k))
	for i, v := range k {
		switch t := v.(type) {
		case int:
			out[i] = int64(t)
		case time.Time:
			out[i] = t.UTC()
		default:
			out[i] = v
		}
	}
	return out
}

// element tags used on the wire
const (
	tagString = "s"
	tagInt    = "i"
	tagFloat  = "f"
	tagBool   = "b"
	tagTime   = "t"
)

// Encode serialises Normalize(k) into a URL-safe, unpadded base64 token.
// The token is opaque: its byte order carries no meaning.
func Encode(k Key) string {
	parts := make([][2]string, 0, len(k))
	for _, v := range Normalize(k) {
		parts = append(parts, encodeScalar(v))
	}
	raw, err := json.Marshal(parts)
	if err != nil {
		// [][2]string always marshals
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func encodeScalar(v any) [2]string {
	switch t := v.(type) {
	case string:
		return [2]string{tagString, t}
	case int:
		return [2]string{tagInt, strconv.FormatInt(int64(t), 10)}
	case int64:
		return [2]string{tagInt, strconv.FormatInt(t, 10)}
	case float64:
		return [2]string{tagFloat, strconv.FormatFloat(t, 'g', -1, 64)}
	case bool:
		return [2]string{tagBool, strconv.FormatBool(t)}
	case time.Time:
		return [2]string{tagTime, t.UTC().Format(time.RFC3339Nano)}
	default:
		return [2]string{tagString, fmt.Sprint(t)}
	}
}

// Decode is the inverse of Encode. Malformed input yields nil rather than an
// error so a corrupted or stale cursor restarts the listing from the top.
func Decode(token string) Key {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil
	}
	var parts [][2]string
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
		return nil
	}
	k := make(Key, 0, len(parts))
	for _, p := range parts {
		v, ok := decodeScalar(p)
		if !ok {
			return nil
		}
		k = append(k, v)
	}
	return k
}

func decodeScalar(p [2]string) (any, bool) {
	switch p[0] {
	case tagString:
		return p[1], true
	case tagInt:
		n, err := strconv.ParseInt(p[1], 10, 64)
		return n, err == nil
	case tagFloat:
		f, err := strconv.ParseFloat(p[1], 64)
		return f, err == nil
	case tagBool:
		b, err := strconv.ParseBool(p[1])
		return b, err == nil
	case tagTime:
		ts, err := time.Parse(time.RFC3339Nano, p[1])
		if err != nil {
			return nil, false
		}
		return ts.UTC(), true
	}
	return nil, false
}

// Compare orders two keys component by component and returns -1, 0 or +1.
// Components of mismatched type are ordered by their wire tag so the result
// stays deterministic.
func Compare(a, b Key) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := compareScalar(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func compareScalar(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int:
		return compareScalar(int64(x), b)
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, y)
		case int:
			return cmpOrdered(x, int64(y))
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(encodeScalar(a)[0], encodeScalar(b)[0])
}

func cmpOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// DecodeFor decodes token and returns nil unless the key has the same shape
// as sample. Keyset queries use it to validate a cursor before binding its
// components as query arguments.
func DecodeFor(token string, sample Key) Key {
	k := Decode(token)
	if k == nil || !compatible(k, sample) {
		return nil
	}
	return k
}

// compatible reports whether a cursor key can be compared with keys of the
// collection: same arity and same component types.
func compatible(cursor, sample Key) bool {
	if len(cursor) != len(sample) {
		return false
	}
	for i := range cursor {
		if encodeScalar(cursor[i])[0] != encodeScalar(sample[i])[0] {
			return false
		}
	}
	return true
}
