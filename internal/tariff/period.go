package tariff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// WindowSize is the number of editable months: previous December, the
// twelve months of the selected year and the following January.
const WindowSize = 14

// ErrInvalidPeriod is returned for period ids that are not YYYY-MM.
var ErrInvalidPeriod = errors.New("tariff: invalid period id")

// Period is one editable month column.
type Period struct {
	ID    string
	Label string
	Year  int
	Month int
}

var shortMonths = map[language.Base][12]string{
	mustBase("es"): {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
	mustBase("en"): {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

func mustBase(s string) language.Base {
	b, err := language.ParseBase(s)
	if err != nil {
		panic(err)
	}
	return b
}

// PeriodID builds the composite "YYYY-MM" identifier.
func PeriodID(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// ParsePeriodID splits a "YYYY-MM" identifier.
func ParsePeriodID(id string) (year, month int, err error) {
	y, m, ok := strings.Cut(id, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, id)
	}
	year, err = strconv.Atoi(y)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, id)
	}
	month, err = strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, id)
	}
	return year, month, nil
}

// MonthName returns the short month label for a locale tag such as "es-AR".
// Unknown locales fall back to Spanish.
func MonthName(locale string, month int) string {
	names := shortMonths[mustBase("es")]
	if tag, err := language.Parse(locale); err == nil {
		if base, _ := tag.Base(); base.String() != "" {
			if n, ok := shortMonths[base]; ok {
				names = n
			}
		}
	}
	if month < 1 || month > 12 {
		return ""
	}
	return names[month-1]
}

// BuildPeriods returns the fourteen-month window centred on year.
func BuildPeriods(year int, locale string) []Period {
	out := make([]Period, 0, WindowSize)
	out = append(out, Period{
		ID:    PeriodID(year-1, 12),
		Label: fmt.Sprintf("%s %d", MonthName(locale, 12), year-1),
		Year:  year - 1,
		Month: 12,
	})
	for m := 1; m <= 12; m++ {
		out = append(out, Period{
			ID:    PeriodID(year, m),
			Label: MonthName(locale, m),
			Year:  year,
			Month: m,
		})
	}
	out = append(out, Period{
		ID:    PeriodID(year+1, 1),
		Label: fmt.Sprintf("%s %d", MonthName(locale, 1), year+1),
		Year:  year + 1,
		Month: 1,
	})
	return out
}

// CurrentPeriodID returns the period id for now in loc.
func CurrentPeriodID(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return PeriodID(now.Year(), int(now.Month()))
}
