package table

// RoleConfig identifies which primary-table columns play the vessel, job and
// e-form roles. It is passed explicitly into every downstream query rather
// than stored in ambient session state.
type RoleConfig struct {
	VesselCol string `json:"vessel_col"`
	JobCol    string `json:"job_col"`
	EFormCol  string `json:"eform_col"`
}

// FilterSelection holds the caller's explicit filter choices. Empty slices
// mean "no restriction" for that level.
type FilterSelection struct {
	ManagementUnits []string `json:"management_units"`
	FleetNames      []string `json:"fleet_names"`
	Vessels         []string `json:"vessels"`
	Jobs            []string `json:"jobs"`
}

// IsEmpty reports whether no filter level is active
func (f FilterSelection) IsEmpty() bool {
	return len(f.ManagementUnits) == 0 && len(f.FleetNames) == 0 &&
		len(f.Vessels) == 0 && len(f.Jobs) == 0
}

// Columns appended by fleet enrichment.
const (
	ColManagementUnit = "Management Unit"
	ColFleetName      = "Fleet Name"
)
