package engine

import "fmt"

// NoContextPlaceholder is substituted when nothing was retrieved and web
// search contributed nothing.
const NoContextPlaceholder = "No context provided."

// BuildPrompt assembles the final generation prompt. The template is
// deterministic: callers (and tests) can predict the exact prompt from the
// context buffer, the node's instruction and the user query.
func BuildPrompt(contextBuffer, instruction, query string) string {
	if contextBuffer == "" {
		contextBuffer = NoContextPlaceholder
	}
	return fmt.Sprintf("Context:\n%s\n\n---\n%s\nUser Question: %s", contextBuffer, instruction, query)
}
