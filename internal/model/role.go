package model

// RoleRef identifies a role within an edition's category grouping
type RoleRef struct {
	Category string `json:"category"`
	Role     string `json:"role"`
}

// RoleData is the display payload for a role as stored in edition
// content: [iconID, description]. The server relays it opaquely;
// only the content provider and the host client interpret it.
type RoleData []string

// Edition is a set of role definitions plus the night-order sequence
// for that edition. Loaded from JSON content files.
type Edition struct {
	Roles      map[string]map[string]RoleData `json:"roles"`
	NightOrder []string                       `json:"nightorder"`
}

// Role looks up the role data for a reference, reporting whether
// the edition defines it.
func (e *Edition) Role(ref RoleRef) (RoleData, bool) {
	category, ok := e.Roles[ref.Category]
	if !ok {
		return nil, false
	}
	data, ok := category[ref.Role]
	return data, ok
}
