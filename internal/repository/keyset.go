package repository

import (
	"fmt"
	"time"

	"github.com/eunhae2004/MakeFinalProject-main/internal/pagination"
)

var (
	timeIDKey = pagination.Key{time.Time{}, ""}
	timeKey   = pagination.Key{time.Time{}}
	int64Key  = pagination.Key{int64(0)}
)

// seekTimeID builds the predicate continuing an (ts DESC, id DESC) listing
// after cursor. An empty or unusable cursor yields no predicate.
func seekTimeID(cursor, tsCol, idCol string) (string, []any) {
	k := pagination.DecodeFor(cursor, timeIDKey)
	if k == nil {
		return "", nil
	}
	ts, id := k[0].(time.Time), k[1].(string)
	return fmt.Sprintf(" AND (%[1]s < ? OR (%[1]s = ? AND %[2]s < ?))", tsCol, idCol), []any{ts, ts, id}
}

func seekTime(cursor, tsCol string) (string, []any) {
	k := pagination.DecodeFor(cursor, timeKey)
	if k == nil {
		return "", nil
	}
	return fmt.Sprintf(" AND %s < ?", tsCol), []any{k[0].(time.Time)}
}

func seekInt64(cursor, col string) (string, []any) {
	k := pagination.DecodeFor(cursor, int64Key)
	if k == nil {
		return "", nil
	}
	return fmt.Sprintf(" AND %s < ?", col), []any{k[0].(int64)}
}
