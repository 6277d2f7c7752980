package domain

// OrgUnitKind is the administrative level of an org unit.
type OrgUnitKind string

const (
	OrgUnitCity        OrgUnitKind = "city"
	OrgUnitDistrict    OrgUnitKind = "district"
	OrgUnitSubDistrict OrgUnitKind = "sub_district"
)

// OrgUnit is a node in the city -> district -> sub-district tree.
type OrgUnit struct {
	ID       string      `json:"id"`
	ParentID *string     `json:"parent_id,omitempty"`
	Kind     OrgUnitKind `json:"kind"`
	Name     string      `json:"name"`
}
