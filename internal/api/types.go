package api

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/jask/tariffdesk/internal/tariff"
)

// Wire types for the tariff and cost endpoints. JSON keys follow the
// backend's Spanish field names.

// YearTariffs is the response of GET /api/tarifas?anio=Y.
type YearTariffs struct {
	Year  int        `json:"anio"`
	Roles []RoleRate `json:"roles"`
}

// RoleRate is one role with its monthly values for a year. Months with a
// JSON null are kept as explicit nulls.
type RoleRate struct {
	ID              string       `json:"id"`
	Name            string       `json:"nombre"`
	ExperienceLevel string       `json:"experiencia"`
	Values          MonthlyRates `json:"valores"`
}

// MonthlyRates maps month (1..12) to an optional amount.
type MonthlyRates map[int]*float64

// UnmarshalJSON accepts the object form {"1": 100, "2": null}. Keys that are
// not months are dropped.
func (m *MonthlyRates) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(MonthlyRates, len(raw))
	for k, v := range raw {
		month, err := strconv.Atoi(k)
		if err != nil || month < 1 || month > 12 {
			continue
		}
		out[month] = v
	}
	*m = out
	return nil
}

// RoleUpdate is the body of PUT /api/tarifas/{rolId}.
type RoleUpdate struct {
	Year    int             `json:"anio"`
	Values  map[int]float64 `json:"valores"`
	Cleared []int           `json:"eliminados"`
}

// BulkItem is one element of the PUT /api/tarifas body.
type BulkItem struct {
	RoleID  string          `json:"rolId"`
	Year    int             `json:"anio"`
	Values  map[int]float64 `json:"valores"`
	Cleared []int           `json:"eliminados"`
}

// ProjectCost is one project of GET /api/costos.
type ProjectCost struct {
	ProjectID   string        `json:"proyectoId"`
	ProjectName string        `json:"proyectoNombre"`
	Months      []MonthlyCost `json:"meses"`
}

// MonthlyCost is a project's cost for one month.
type MonthlyCost struct {
	Year               int            `json:"anio"`
	Month              int            `json:"mes"`
	TotalHours         float64        `json:"horasTotales"`
	TotalCost          float64        `json:"costoTotal"`
	Resources          []CostResource `json:"recursos"`
	RolesMissingTariff []string       `json:"rolesSinTarifa,omitempty"`
}

// CostResource is one resource line: hours x hourly rate = cost.
type CostResource struct {
	ResourceID string  `json:"recursoId"`
	Name       string  `json:"nombre"`
	Role       string  `json:"rol"`
	Seniority  string  `json:"seniority"`
	Hours      float64 `json:"horas"`
	HourlyRate float64 `json:"tarifaHora"`
	Cost       float64 `json:"costo"`
}

// YearData converts a response into the reconciler input.
func (y YearTariffs) YearData() tariff.YearData {
	out := tariff.YearData{Year: y.Year, Roles: make([]tariff.RoleValues, 0, len(y.Roles))}
	for _, r := range y.Roles {
		values := make(map[int]tariff.Value, len(r.Values))
		for month, v := range r.Values {
			if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
				values[month] = tariff.Null()
				continue
			}
			values[month] = tariff.Num(*v)
		}
		out.Roles = append(out.Roles, tariff.RoleValues{
			Role:   tariff.Role{ID: r.ID, Name: r.Name, ExperienceLevel: r.ExperienceLevel},
			Values: values,
		})
	}
	return out
}

// BulkFromUpdates maps compacted updates to the bulk request body.
func BulkFromUpdates(updates []tariff.Update) []BulkItem {
	out := make([]BulkItem, 0, len(updates))
	for _, u := range updates {
		cleared := u.Cleared
		if cleared == nil {
			cleared = []int{}
		}
		out = append(out, BulkItem{RoleID: u.RoleID, Year: u.Year, Values: u.Values, Cleared: cleared})
	}
	return out
}

// Rate returns a pointer for building MonthlyRates.
func Rate(v float64) *float64 { return &v }

// Months lists the months present, ascending.
func (m MonthlyRates) Months() []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
