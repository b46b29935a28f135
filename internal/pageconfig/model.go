package pageconfig

// RecommendedActionsType tags the block holding recommended items.
const RecommendedActionsType = "recommended_actions"

// ThemeArgs identifies the theme the about page belongs to.
type ThemeArgs struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
	Slug        string `yaml:"slug" json:"slug"`
}

// Block is one content block (tab) of the page configuration. Key is the tab
// id when the document declares blocks as a mapping.
type Block struct {
	Key    string         `json:"key,omitempty"`
	Type   string         `json:"type,omitempty"`
	Fields map[string]any `json:"fields"`
}

// Document is the full page configuration.
type Document struct {
	Theme  ThemeArgs `json:"theme"`
	Blocks []Block   `json:"blocks"`
}

// RecommendedItem is one suggested action. Display is passed through to the
// UI untouched.
type RecommendedItem struct {
	ID      string         `json:"id"`
	Display map[string]any `json:"display"`
}
