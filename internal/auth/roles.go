package auth

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// EditorRoles may store and delete caption and bilingual tracks.
var EditorRoles = []string{RoleAdmin, RoleEditor}

// Capabilities tells a client which caption routes a role can use, so the
// UI can hide what the server would refuse.
type Capabilities struct {
	RunPipeline    bool `json:"run_pipeline"`    // stateless /captions/* and sync sessions
	EditTracks     bool `json:"edit_tracks"`     // upload, import, align and delete tracks
	ManageSettings bool `json:"manage_settings"` // engine tunables
	ManageUsers    bool `json:"manage_users"`
}

// CapabilitiesFor maps a role to its capabilities. Unknown roles get none.
func CapabilitiesFor(role string) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{RunPipeline: true, EditTracks: true, ManageSettings: true, ManageUsers: true}
	case RoleEditor:
		return Capabilities{RunPipeline: true, EditTracks: true}
	case RoleViewer:
		return Capabilities{RunPipeline: true}
	}
	return Capabilities{}
}
