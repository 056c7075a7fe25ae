package model

// NavEntry is one item of the navigation menu.
type NavEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Navigation is the menu and page sections visible to a role.
type Navigation struct {
	Role     Role       `json:"role"`
	Entries  []NavEntry `json:"entries"`
	Sections []string   `json:"sections"`
}
