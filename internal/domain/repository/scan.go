package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// utcTime scans a timestamp column into dst as UTC. SQLite hands back text
// when it cannot see the declared column type (RETURNING, aggregates), so
// strings are parsed with the driver's own layouts.
type utcTime struct {
	dst *time.Time
}

func at(dst *time.Time) utcTime {
	return utcTime{dst: dst}
}

func (u utcTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*u.dst = v.UTC()
		return nil
	case string:
		return u.parse(v)
	case []byte:
		return u.parse(string(v))
	case nil:
		*u.dst = time.Time{}
		return nil
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (u utcTime) parse(s string) error {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*u.dst = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: cannot parse %q", s)
}
