package tariff

// Status classifies a dirty cell against its baseline.
type Status int

const (
	StatusClean Status = iota
	StatusAdded
	StatusModified
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	case StatusRemoved:
		return "removed"
	default:
		return ""
	}
}

// Session is the editable state of the tariff page: the loaded window, the
// live values, the baseline snapshot and the dirty map. It is owned by a
// single UI loop and is not safe for concurrent use.
type Session struct {
	Year     int
	Periods  []Period
	Roles    []Role
	Values   Table
	Baseline Table
	Dirty    Table
}

// NewSession returns an empty session for year.
func NewSession(year int, locale string) *Session {
	return &Session{
		Year:     year,
		Periods:  BuildPeriods(year, locale),
		Values:   make(Table),
		Baseline: make(Table),
		Dirty:    make(Table),
	}
}

// Replace installs a freshly reconciled window and drops every pending change.
func (s *Session) Replace(year int, periods []Period, r Reconciled) {
	s.Year = year
	s.Periods = periods
	s.Roles = r.Roles
	s.Values = r.Values
	s.Baseline = r.Baseline
	s.Dirty = make(Table)
}

// Apply records an edit. The live value is always updated; the dirty entry
// exists only while the value differs from the baseline.
func (s *Session) Apply(roleID, periodID string, v Value) {
	s.Values.Set(roleID, periodID, v)
	if v.Equal(s.Baseline.Get(roleID, periodID)) {
		s.Dirty.Delete(roleID, periodID)
		return
	}
	s.Dirty.Set(roleID, periodID, v)
}

// Status derives the classification of one cell from baseline and current.
func (s *Session) Status(roleID, periodID string) Status {
	if !s.Dirty.Has(roleID, periodID) {
		return StatusClean
	}
	return Classify(s.Baseline.Get(roleID, periodID), s.Values.Get(roleID, periodID))
}

// Classify compares a baseline and a current value.
func Classify(baseline, current Value) Status {
	switch {
	case baseline.Equal(current):
		return StatusClean
	case baseline.IsNull() && !current.IsNull():
		return StatusAdded
	case !baseline.IsNull() && current.IsNull():
		return StatusRemoved
	default:
		return StatusModified
	}
}

// HasChanges reports whether any cell differs from the baseline.
func (s *Session) HasChanges() bool { return len(s.Dirty) > 0 }

// Pending returns the compacted save payload for the current dirty map.
func (s *Session) Pending() []Update { return Compact(s.Dirty) }

// Commit re-baselines exactly the submitted cells and clears the dirty map.
// Call only after the bulk request succeeded.
func (s *Session) Commit(updates []Update) {
	for _, u := range updates {
		for month, amount := range u.Values {
			s.Baseline.Set(u.RoleID, PeriodID(u.Year, month), Num(amount))
		}
		for _, month := range u.Cleared {
			s.Baseline.Set(u.RoleID, PeriodID(u.Year, month), Null())
		}
	}
	s.Dirty = make(Table)
}

// RoleIndex returns the row of roleID or -1.
func (s *Session) RoleIndex(roleID string) int {
	for i, r := range s.Roles {
		if r.ID == roleID {
			return i
		}
	}
	return -1
}
