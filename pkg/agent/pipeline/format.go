package pipeline

import (
	"regexp"
	"strings"
)

// Fence openers with an optional language tag, e.g. "```go\n" or "```\n".
var fenceOpener = regexp.MustCompile("```(\\w+)?\n")

// FormatCodeBlocks ensures every fenced code block in the response
// carries a language tag, defaulting untagged fences to "text".
// Responses without fences pass through untouched.
func FormatCodeBlocks(state *State) {
	state.Response = normalizeFences(state.Response)
	state.CurrentStep = StepCodeFormatted
}

func normalizeFences(response string) string {
	if !strings.Contains(response, "```") {
		return response
	}
	return fenceOpener.ReplaceAllStringFunc(response, func(m string) string {
		if m == "```\n" {
			return "```text\n"
		}
		return m
	})
}
