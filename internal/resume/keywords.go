// Package resume holds résumé text helpers: loading, keyword parsing and keyword gap analysis.
package resume

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Keyword categories the advisor asks the language model for.
const (
	HardSkills     = "Hard Skills"
	SoftSkills     = "Soft Skills"
	Tools          = "Tools & Technologies"
	Certifications = "Certifications"
	DomainKeywords = "Domain Keywords"
)

var categories = []string{HardSkills, SoftSkills, Tools, Certifications, DomainKeywords}

// Categories returns the known keyword categories in presentation order.
func Categories() []string {
	return append([]string(nil), categories...)
}

// Keywords groups job keywords by category.
type Keywords map[string][]string

// Advice is the outcome of résumé strengthening for a job.
type Advice struct {
	Keywords Keywords `json:"keywords"`
	Missing  Keywords `json:"missing"`
	Feedback string   `json:"feedback"`
}

// Load reads a plain text résumé.
func Load(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("resume path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading resume %q: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("resume %q is empty", path)
	}

	return text, nil
}

// ParseKeywordList reads a bullet list grouped under category headings, e.g.
//
//	Hard Skills:
//	- Go
//	- SQL
func ParseKeywordList(text string) Keywords {
	parsed := Keywords{}
	current := ""

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if category := matchCategory(line); category != "" {
			current = category
			if _, ok := parsed[current]; !ok {
				parsed[current] = []string{}
			}
			continue
		}

		if current != "" && (strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*")) {
			keyword := strings.TrimSpace(line[1:])
			if keyword != "" {
				parsed[current] = append(parsed[current], keyword)
			}
		}
	}

	return parsed
}

func matchCategory(line string) string {
	if strings.HasPrefix(line, "-") || (strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "**")) {
		return ""
	}
	for _, c := range categories {
		if strings.Contains(line, c) {
			return c
		}
	}
	return ""
}

// MissingKeywords returns, per category, the keywords that do not occur in the résumé.
// Matching is a case-insensitive substring check.
func MissingKeywords(resumeText string, keywords Keywords) Keywords {
	text := strings.ToLower(resumeText)
	missing := make(Keywords, len(keywords))

	for category, list := range keywords {
		absent := []string{}
		for _, kw := range list {
			if !strings.Contains(text, strings.ToLower(strings.TrimSpace(kw))) {
				absent = append(absent, kw)
			}
		}
		missing[category] = absent
	}

	return missing
}

// Count returns the total number of keywords across categories.
func (k Keywords) Count() int {
	total := 0
	for _, list := range k {
		total += len(list)
	}
	return total
}

// String renders keywords grouped by category, known categories first.
func (k Keywords) String() string {
	var b strings.Builder
	for _, category := range k.orderedCategories() {
		list := k[category]
		b.WriteString(category)
		b.WriteString(": ")
		if len(list) == 0 {
			b.WriteString("none")
		} else {
			b.WriteString(strings.Join(list, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (k Keywords) orderedCategories() []string {
	known := make(map[string]bool, len(categories))
	ordered := make([]string, 0, len(k))
	for _, c := range categories {
		known[c] = true
		if _, ok := k[c]; ok {
			ordered = append(ordered, c)
		}
	}

	var extra []string
	for c := range k {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)

	return append(ordered, extra...)
}
