package query

import (
	"fmt"
	"strings"
)

// Intent is a coarse query classification that bypasses text ranking.
type Intent int

const (
	IntentNone Intent = iota
	IntentAll
	IntentTopRated
	IntentBottomRated
)

func (i Intent) String() string {
	switch i {
	case IntentAll:
		return "ALL"
	case IntentTopRated:
		return "TOP_RATED"
	case IntentBottomRated:
		return "BOTTOM_RATED"
	default:
		return "NONE"
	}
}

func (i Intent) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Intent) UnmarshalText(b []byte) error {
	v, ok := ParseIntent(string(b))
	if !ok {
		return fmt.Errorf("unknown intent %q", b)
	}
	*i = v
	return nil
}

// ParseIntent maps a dictionary code to an Intent. Both the legacy codes
// (RATING_TOP, RATING_BOTTOM) and the enum names are accepted.
func ParseIntent(code string) (Intent, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "ALL", "SHOW_ALL":
		return IntentAll, true
	case "RATING_TOP", "TOP_RATED":
		return IntentTopRated, true
	case "RATING_BOTTOM", "BOTTOM_RATED":
		return IntentBottomRated, true
	case "NONE":
		return IntentNone, true
	default:
		return IntentNone, false
	}
}
