package sqlrepo

import (
	"fmt"
	"time"
)

// nullTime scans DATETIME columns from either driver: MySQL with
// parseTime hands back time.Time, SQLite may hand back text.
type nullTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (n *nullTime) Scan(v any) error {
	n.Time, n.Valid = time.Time{}, false
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		n.Time, n.Valid = t.UTC(), true
		return nil
	case []byte:
		return n.parse(string(t))
	case string:
		return n.parse(t)
	default:
		return fmt.Errorf("nullTime: unsupported type %T", v)
	}
}

func (n *nullTime) parse(s string) error {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("nullTime: cannot parse %q", s)
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
