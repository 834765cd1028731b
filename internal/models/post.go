// Package models defines the domain types for postindex.
package models

// Post is the metadata record extracted from one content file. Field names
// are consumed by downstream tooling and must stay stable.
type Post struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Filename    string   `json:"filename"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Subcategory *string  `json:"subcategory"`
	Tags        []string `json:"tags"`
	Excerpt     string   `json:"excerpt"`
	Author      string   `json:"author"`
}

// SubcategoryName returns the subcategory id or "" when unset.
func (p Post) SubcategoryName() string {
	if p.Subcategory == nil {
		return ""
	}
	return *p.Subcategory
}

// CategoryConfig is one entry of the fixed, ordered category configuration.
type CategoryConfig struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon,omitempty" yaml:"icon"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// CategoryNode is one entry of the persisted category tree.
// Subcategories is omitted entirely when the category has none.
type CategoryNode struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Icon          string            `json:"icon,omitempty"`
	Description   string            `json:"description,omitempty"`
	Count         int               `json:"count"`
	Subcategories []SubcategoryNode `json:"subcategories,omitempty"`
}

// SubcategoryNode is a second-level tally under a CategoryNode.
type SubcategoryNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
