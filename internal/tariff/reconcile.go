package tariff

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// YearData is one yearly server response: roles with sparse month values
// scoped to Year.
type YearData struct {
	Year  int
	Roles []RoleValues
}

// RoleValues pairs role metadata with month -> value for one year.
type RoleValues struct {
	Role   Role
	Values map[int]Value
}

// Reconciled is the merged view of the three yearly responses.
type Reconciled struct {
	Roles    []Role
	Values   Table
	Baseline Table
}

// Reconcile merges responses in order. The first occurrence of a role keeps
// its metadata; values are keyed by each response's own year. Roles are
// sorted by name using locale collation and every period of the window gets
// an explicit entry.
func Reconcile(periods []Period, locale string, responses ...YearData) Reconciled {
	seen := make(map[string]int)
	var roles []Role
	merged := make(Table)

	for _, resp := range responses {
		for _, rv := range resp.Roles {
			if _, ok := seen[rv.Role.ID]; !ok {
				seen[rv.Role.ID] = len(roles)
				roles = append(roles, rv.Role)
			}
			if _, ok := merged[rv.Role.ID]; !ok {
				merged[rv.Role.ID] = make(map[string]Value)
			}
			for month, v := range rv.Values {
				merged.Set(rv.Role.ID, PeriodID(resp.Year, month), v)
			}
		}
	}

	sortRoles(roles, locale)

	values := make(Table, len(roles))
	for _, r := range roles {
		row := make(map[string]Value, len(merged[r.ID])+len(periods))
		for k, v := range merged[r.ID] {
			row[k] = v
		}
		for _, p := range periods {
			if _, ok := row[p.ID]; !ok {
				row[p.ID] = Null()
			}
		}
		values[r.ID] = row
	}

	return Reconciled{Roles: roles, Values: values, Baseline: values.Clone()}
}

func sortRoles(roles []Role, locale string) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	col := collate.New(tag)
	sort.SliceStable(roles, func(i, j int) bool {
		if c := col.CompareString(roles[i].Name, roles[j].Name); c != 0 {
			return c < 0
		}
		return roles[i].ID < roles[j].ID
	})
}
