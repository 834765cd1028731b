package category

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/starford/postindex/internal/models"
)

func post(category, sub string) models.Post {
	p := models.Post{Category: category, Tags: []string{}}
	if sub != "" {
		p.Subcategory = &sub
	}
	return p
}

func TestAggregate_EmptyStoreListsEveryCategory(t *testing.T) {
	nodes := Aggregate(nil, Defaults)
	if len(nodes) != len(Defaults) {
		t.Fatalf("got %d nodes, want %d", len(nodes), len(Defaults))
	}
	for i, n := range nodes {
		if n.ID != Defaults[i].ID {
			t.Errorf("node %d = %s, want %s", i, n.ID, Defaults[i].ID)
		}
		if n.Count != 0 {
			t.Errorf("%s count = %d, want 0", n.ID, n.Count)
		}
		if n.Subcategories != nil {
			t.Errorf("%s has subcategories %v", n.ID, n.Subcategories)
		}
	}

	raw, err := json.Marshal(nodes[0])
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "subcategories") {
		t.Fatalf("empty subcategories must be omitted: %s", raw)
	}
}

func TestAggregate_SubcategoriesSortedByDisplayName(t *testing.T) {
	posts := []models.Post{
		post("Language", "ts"),
		post("Language", "go"),
		post("Language", "ts"),
		post("Language", ""),
	}
	nodes := Aggregate(posts, Defaults)

	var lang models.CategoryNode
	for _, n := range nodes {
		if n.ID == "Language" {
			lang = n
		}
	}
	if lang.Count != 4 {
		t.Fatalf("Language count = %d, want 4", lang.Count)
	}
	var names []string
	for _, s := range lang.Subcategories {
		names = append(names, s.Name)
	}
	if !slices.Equal(names, []string{"Go", "TypeScript"}) {
		t.Fatalf("names = %v", names)
	}
	if lang.Subcategories[1].ID != "ts" || lang.Subcategories[1].Count != 2 {
		t.Fatalf("ts node = %+v", lang.Subcategories[1])
	}
}

func TestAggregate_IgnoresUnconfiguredCategories(t *testing.T) {
	config := []models.CategoryConfig{{ID: "Life", Name: "Life"}}
	nodes := Aggregate([]models.Post{post("uncategorized", "misc"), post("Life", "")}, config)
	if len(nodes) != 1 || nodes[0].Count != 1 || nodes[0].Subcategories != nil {
		t.Fatalf("nodes = %+v", nodes)
	}
}

func TestAggregate_SubcategoryScopedToCategory(t *testing.T) {
	nodes := Aggregate([]models.Post{post("Database", "redis"), post("Platform", "redis")}, Defaults)
	for _, n := range nodes {
		switch n.ID {
		case "Database", "Platform":
			if len(n.Subcategories) != 1 || n.Subcategories[0].Count != 1 {
				t.Errorf("%s subcategories = %+v", n.ID, n.Subcategories)
			}
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ts", "TypeScript"},
		{"TS", "TypeScript"},
		{"go", "Go"},
		{"k8s", "Kubernetes"},
		{"PostgreSQL", "PostgreSQL"},
		{"algorithms", "Algorithms"},
		{"étude", "Étude"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
