package tariff

import (
	"sort"
)

// Update is one per-role, per-year batch of the bulk save payload.
type Update struct {
	RoleID  string
	Year    int
	Values  map[int]float64
	Cleared []int
}

// Empty reports whether the update carries nothing.
func (u Update) Empty() bool { return len(u.Values) == 0 && len(u.Cleared) == 0 }

// Compact groups the dirty map by role and year. Numeric changes go to
// Values, nulls to Cleared. Malformed period ids are skipped. Output is
// ordered by role id then year.
func Compact(dirty Table) []Update {
	roleIDs := make([]string, 0, len(dirty))
	for id := range dirty {
		roleIDs = append(roleIDs, id)
	}
	sort.Strings(roleIDs)

	var out []Update
	for _, roleID := range roleIDs {
		byYear := make(map[int]*Update)
		for periodID, v := range dirty[roleID] {
			year, month, err := ParsePeriodID(periodID)
			if err != nil {
				continue
			}
			u, ok := byYear[year]
			if !ok {
				u = &Update{RoleID: roleID, Year: year, Values: make(map[int]float64)}
				byYear[year] = u
			}
			if v.IsNull() {
				u.Cleared = append(u.Cleared, month)
			} else {
				u.Values[month] = v.Amount
			}
		}
		years := make([]int, 0, len(byYear))
		for y := range byYear {
			years = append(years, y)
		}
		sort.Ints(years)
		for _, y := range years {
			u := byYear[y]
			if u.Empty() {
				continue
			}
			sort.Ints(u.Cleared)
			if u.Cleared == nil {
				u.Cleared = []int{}
			}
			out = append(out, *u)
		}
	}
	return out
}
