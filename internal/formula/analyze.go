package formula

import (
	"sort"

	"github.com/agext/levenshtein"
)

// suggestionThreshold is the minimum levenshtein.Match score for a known name
// to be offered as a correction.
const suggestionThreshold = 0.6

// Reference is a quantity read by a formula. Offset is zero for the current
// year and negative for prior years.
type Reference struct {
	Name   string
	Offset int
}

// References returns every quantity reference in source order, duplicates
// included.
func (f *Formula) References() []Reference {
	var refs []Reference
	walk(f.root, func(n node) {
		if r, ok := n.(*ref); ok {
			refs = append(refs, Reference{Name: r.name, Offset: r.offset})
		}
	})
	return refs
}

// Categories returns the categories aggregated by category_total.
func (f *Formula) Categories() []string {
	var cats []string
	walk(f.root, func(n node) {
		if c, ok := n.(*categoryTotal); ok {
			cats = append(cats, c.category)
		}
	})
	return cats
}

func walk(n node, fn func(node)) {
	fn(n)
	switch n := n.(type) {
	case *unaryExpr:
		walk(n.x, fn)
	case *binaryExpr:
		walk(n.x, fn)
		walk(n.y, fn)
	}
}

// Validate checks src without evaluating it. It reports syntax problems, a
// same-year reference to owner, and names missing from known.
func Validate(src, owner string, known []string) error {
	f, err := Parse(src)
	if err != nil {
		return err
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}

	var undefined []string
	seen := make(map[string]struct{})
	for _, r := range f.References() {
		if owner != "" && r.Name == owner && r.Offset == 0 {
			return &SelfReferenceError{Name: owner, Formula: src}
		}
		if _, ok := knownSet[r.Name]; ok {
			continue
		}
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}
		undefined = append(undefined, r.Name)
	}
	if len(undefined) == 0 {
		return nil
	}

	sort.Strings(undefined)
	suggestions := make(map[string][]string)
	for _, name := range undefined {
		if s := Suggest(name, known); len(s) > 0 {
			suggestions[name] = s
		}
	}
	return &UndefinedNameError{Owner: owner, Names: undefined, Suggestions: suggestions}
}

// Suggest returns up to three candidates that look like a misspelling of name,
// best match first.
func Suggest(name string, candidates []string) []string {
	type scored struct {
		name  string
		score float64
	}
	var matches []scored
	for _, c := range candidates {
		if c == name {
			continue
		}
		if score := levenshtein.Match(name, c, nil); score >= suggestionThreshold {
			matches = append(matches, scored{name: c, score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name < matches[j].name
	})

	var out []string
	for i := 0; i < len(matches) && i < 3; i++ {
		out = append(out, matches[i].name)
	}
	return out
}
