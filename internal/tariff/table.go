package tariff

// Role is a tariff row. Replaced wholesale on every load.
type Role struct {
	ID              string
	Name            string
	ExperienceLevel string
}

// Label is the row caption shown in the grid.
func (r Role) Label() string {
	if r.ExperienceLevel == "" {
		return r.Name
	}
	return r.Name + " (" + r.ExperienceLevel + ")"
}

// Table maps role id -> period id -> value.
type Table map[string]map[string]Value

// Get returns the stored value, null when the role or period is absent.
func (t Table) Get(roleID, periodID string) Value {
	return t[roleID][periodID]
}

// Set stores a value, creating the role map when needed.
func (t Table) Set(roleID, periodID string, v Value) {
	row, ok := t[roleID]
	if !ok {
		row = make(map[string]Value)
		t[roleID] = row
	}
	row[periodID] = v
}

// Delete removes one entry and prunes the role when it becomes empty.
func (t Table) Delete(roleID, periodID string) {
	row, ok := t[roleID]
	if !ok {
		return
	}
	delete(row, periodID)
	if len(row) == 0 {
		delete(t, roleID)
	}
}

// Has reports whether an explicit entry exists.
func (t Table) Has(roleID, periodID string) bool {
	_, ok := t[roleID][periodID]
	return ok
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for roleID, row := range t {
		cp := make(map[string]Value, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[roleID] = cp
	}
	return out
}

// Len counts entries across all roles.
func (t Table) Len() int {
	n := 0
	for _, row := range t {
		n += len(row)
	}
	return n
}
