package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursors encode a (created_at, id) position as "unixmicro_id". The compound
// key keeps pagination stable when two posts share a timestamp.

// FormatCursor is exported for callers that build a page boundary from an
// already-hydrated post (the cache-backed listing path).
func FormatCursor(t time.Time, id int64) string {
	return fmt.Sprintf("%d_%d", t.UnixMicro(), id)
}

func parseCursor(cursor string) (time.Time, int64, error) {
	parts := strings.SplitN(cursor, "_", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("malformed cursor")
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed cursor timestamp")
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed cursor id")
	}

	return time.UnixMicro(micros), id, nil
}
