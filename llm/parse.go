package llm

import (
	"regexp"
	"strings"

	"github.com/fwojciec/revex"
)

// fieldPatterns match "<field>: <value>" up to the end of the line.
// The field name must not be part of a longer word ("subtitle:").
var fieldPatterns = map[revex.Field]*regexp.Regexp{
	revex.FieldTitle:    fieldPattern("title"),
	revex.FieldBody:     fieldPattern("body"),
	revex.FieldRating:   fieldPattern("rating"),
	revex.FieldReviewer: fieldPattern("reviewer"),
}

var containerPattern = fieldPattern("container")

func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)(?:^|[^\w-])` + name + `\**:[ \t]*(.+)$`)
}

// ParseRules extracts the four field locators from a model answer.
// Fields that are missing, blank or garbled get their built-in locator and are
// listed in RuleSet.Defaulted. ParseRules never fails.
func ParseRules(text string) *revex.RuleSet {
	rs := &revex.RuleSet{}
	for _, f := range revex.Fields {
		locator := match(fieldPatterns[f], text)
		if locator == "" {
			locator = revex.DefaultLocator(f)
			rs.Defaulted = append(rs.Defaulted, f)
		}
		rs.SetLocator(f, locator)
	}
	rs.Container = match(containerPattern, text)
	return rs
}

func match(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanLocator(m[1])
}

// cleanLocator removes markdown decoration models put around selectors.
// A value left with a stray backtick or an unbalanced quote is not a usable
// locator and yields "".
func cleanLocator(v string) string {
	v = strings.TrimLeft(strings.TrimSpace(v), "* ")
	if strings.HasPrefix(v, "`") {
		if end := strings.Index(v[1:], "`"); end >= 0 {
			v = v[1 : end+1]
		}
	}
	v = strings.TrimSuffix(strings.TrimRight(v, ",;"), "**")
	v = strings.Trim(v, "`'\"")
	v = strings.TrimSpace(v)
	if strings.Contains(v, "`") || strings.Count(v, `"`)%2 != 0 || strings.Count(v, "'")%2 != 0 {
		return ""
	}
	return v
}
