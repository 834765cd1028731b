// Package category aggregates post counts into the configured category tree.
package category

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/postindex/internal/models"
)

// Defaults is the category configuration used when none is supplied.
var Defaults = []models.CategoryConfig{
	{ID: "CS", Name: "Computer Science", Icon: "💻", Description: "컴퓨터 과학 기초"},
	{ID: "Language", Name: "Programming Language", Icon: "📝", Description: "프로그래밍 언어"},
	{ID: "Framework", Name: "Framework", Icon: "🚀", Description: "프레임워크 & 라이브러리"},
	{ID: "Database", Name: "Database", Icon: "🗄️", Description: "데이터베이스"},
	{ID: "Platform", Name: "Platform", Icon: "☁️", Description: "플랫폼 & 인프라"},
	{ID: "Life", Name: "Life", Icon: "🌱", Description: "개발 일상"},
}

type subKey struct {
	category    string
	subcategory string
}

// Aggregate counts posts per configured category and per subcategory.
// Every configured category appears in configured order, including those
// with no posts. Posts whose category is not configured are not reported.
func Aggregate(posts []models.Post, config []models.CategoryConfig) []models.CategoryNode {
	counts := make(map[string]int)
	subCounts := make(map[subKey]int)
	var subOrder []subKey

	for _, p := range posts {
		counts[p.Category]++
		if p.Subcategory == nil || *p.Subcategory == "" {
			continue
		}
		k := subKey{category: p.Category, subcategory: *p.Subcategory}
		if _, ok := subCounts[k]; !ok {
			subOrder = append(subOrder, k)
		}
		subCounts[k]++
	}

	col := collate.New(language.Und)
	nodes := make([]models.CategoryNode, 0, len(config))
	for _, c := range config {
		node := models.CategoryNode{
			ID:          c.ID,
			Name:        c.Name,
			Icon:        c.Icon,
			Description: c.Description,
			Count:       counts[c.ID],
		}
		for _, k := range subOrder {
			if k.category != c.ID {
				continue
			}
			node.Subcategories = append(node.Subcategories, models.SubcategoryNode{
				ID:    k.subcategory,
				Name:  DisplayName(k.subcategory),
				Count: subCounts[k],
			})
		}
		slices.SortStableFunc(node.Subcategories, func(a, b models.SubcategoryNode) int {
			return col.CompareString(a.Name, b.Name)
		})
		nodes = append(nodes, node)
	}
	return nodes
}

// Well-known subcategory spellings, keyed by lowercase id.
var displayNames = map[string]string{
	"java":       "Java",
	"python":     "Python",
	"py":         "Python",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"go":         "Go",
	"golang":     "Go",
	"rust":       "Rust",
	"react":      "React",
	"vue":        "Vue",
	"angular":    "Angular",
	"spring":     "Spring",
	"django":     "Django",
	"express":    "Express",
	"mysql":      "MySQL",
	"postgresql": "PostgreSQL",
	"postgres":   "PostgreSQL",
	"mongodb":    "MongoDB",
	"mongo":      "MongoDB",
	"redis":      "Redis",
	"docker":     "Docker",
	"kubernetes": "Kubernetes",
	"k8s":        "Kubernetes",
	"aws":        "AWS",
	"gcp":        "GCP",
	"azure":      "Azure",
}

// DisplayName returns the human-readable name for a subcategory id.
func DisplayName(id string) string {
	if name, ok := displayNames[strings.ToLower(id)]; ok {
		return name
	}
	r, size := utf8.DecodeRuneInString(id)
	if r == utf8.RuneError {
		return id
	}
	return string(unicode.ToUpper(r)) + id[size:]
}
