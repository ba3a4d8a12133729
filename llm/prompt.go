// Package llm infers review locators by prompting a text-completion model
// and parsing its free-form answer.
package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent as the system instruction of every inference request.
const SystemPrompt = "You are an expert in analyzing HTML content and extracting CSS selectors for product reviews: title, body, rating, and reviewer."

// BuildUserPrompt builds the user prompt embedding the reduced page markup.
func BuildUserPrompt(markup string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following HTML and identify the CSS selectors for product reviews, including title, body, rating, and reviewer.\n")
	sb.WriteString("Answer with one line per field, exactly in this form:\n")
	for _, line := range []string{"title", "body", "rating", "reviewer"} {
		fmt.Fprintf(&sb, "%s: <css selector>\n", line)
	}
	sb.WriteString("If every review is wrapped in its own element, add a line \"container: <css selector>\" and make the field selectors relative to it.\n\n")
	sb.WriteString(markup)
	return sb.String()
}
