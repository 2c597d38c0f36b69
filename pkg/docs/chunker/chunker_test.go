package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkEmptyPage(t *testing.T) {
	c := New(1000)

	_, err := c.Chunk(PageContent{}, "https://example.com/docs")
	assert.ErrorIs(t, err, ErrNoContentExtracted)
}

func TestChunkTitleOnly(t *testing.T) {
	c := New(1000)

	chunks, err := c.Chunk(PageContent{Title: "Requests"}, "https://example.com/docs")
	assert.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "Title: Requests", chunks[0].Content)
	assert.Equal(t, ChunkTypeTitle, chunks[0].Type)
	assert.Equal(t, "https://example.com/docs", chunks[0].Metadata.URL)
}

func TestChunkSmallSection(t *testing.T) {
	// A section under the bound produces exactly one section chunk,
	// never section_part chunks.
	c := New(1000)

	content := PageContent{
		Title: "Requests",
		Sections: []Section{
			{
				Title:   "GET requests",
				Level:   2,
				Content: strings.Repeat("Sending a GET request is simple. ", 9), // < 300 chars
				ID:      "s1",
			},
		},
	}

	chunks, err := c.Chunk(content, "https://example.com/docs")
	assert.NoError(t, err)
	assert.Len(t, chunks, 2)

	assert.Equal(t, ChunkTypeTitle, chunks[0].Type)

	section := chunks[1]
	assert.Equal(t, ChunkTypeSection, section.Type)
	assert.Equal(t, ChunkTypeSection, section.Metadata.ChunkType)
	assert.Equal(t, "GET requests", section.Metadata.Section)
	assert.Equal(t, "s1", section.Metadata.SectionID)
	assert.Equal(t, 2, section.Metadata.Level)
	assert.True(t, strings.HasPrefix(section.Content, "GET requests\n\n"))

	for _, chunk := range chunks {
		assert.NotEqual(t, ChunkTypeSectionPart, chunk.Type)
	}
}

func TestChunkLargeSectionSplit(t *testing.T) {
	// ~2500 chars of content in ~400-char paragraphs with a 1000 bound
	// must produce at least 3 section_part chunks, the continued ones
	// seeded with "<title> (continued)".
	c := New(1000)

	paragraph := strings.TrimSpace(strings.Repeat("Authentication tokens expire after one hour. ", 9)) // ~400 chars
	paragraphs := make([]string, 6)
	for i := range paragraphs {
		paragraphs[i] = paragraph
	}

	content := PageContent{
		Sections: []Section{
			{
				Title:   "Authentication",
				Level:   2,
				Content: strings.Join(paragraphs, "\n\n"),
				ID:      "auth",
			},
		},
	}

	chunks, err := c.Chunk(content, "https://example.com/docs")
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(chunks), 3)

	for i, chunk := range chunks {
		assert.Equal(t, ChunkTypeSectionPart, chunk.Type)
		assert.Equal(t, ChunkTypeSectionPart, chunk.Metadata.ChunkType)
		assert.Equal(t, "Authentication", chunk.Metadata.Section)
		if i == 0 {
			assert.True(t, strings.HasPrefix(chunk.Content, "Authentication\n\n"))
		} else {
			assert.True(t, strings.HasPrefix(chunk.Content, "Authentication (continued)\n\n"))
		}
	}
}

func TestChunkNeverSplitsInsideParagraph(t *testing.T) {
	// Every paragraph of the source must appear whole in exactly one
	// chunk, even when that makes the chunk exceed the bound.
	c := New(100)

	paragraphs := []string{
		strings.Repeat("alpha ", 30),  // 180 chars, alone exceeds the bound
		strings.Repeat("beta ", 10),   // 50 chars
		strings.Repeat("gamma ", 25),  // 150 chars
		strings.Repeat("delta ", 5),   // 30 chars
	}
	for i := range paragraphs {
		paragraphs[i] = strings.TrimSpace(paragraphs[i])
	}

	content := PageContent{
		Sections: []Section{
			{Title: "Mixed", Level: 3, Content: strings.Join(paragraphs, "\n\n"), ID: "m"},
		},
	}

	chunks, err := c.Chunk(content, "https://example.com/docs")
	assert.NoError(t, err)

	for _, paragraph := range paragraphs {
		found := 0
		for _, chunk := range chunks {
			if strings.Contains(chunk.Content, paragraph) {
				found++
			}
		}
		assert.Equal(t, 1, found, "paragraph must land whole in exactly one chunk")
	}
}

func TestChunkCodeBlocks(t *testing.T) {
	c := New(1000)

	content := PageContent{
		CodeBlocks: []CodeBlock{
			{Content: "resp, err := http.Get(url)", Language: "go", ID: "code_0"},
			{Content: "print('hello')", Language: "", ID: "code_1"},
		},
	}

	chunks, err := c.Chunk(content, "https://example.com/docs")
	assert.NoError(t, err)
	assert.Len(t, chunks, 2)

	assert.Equal(t, ChunkTypeCode, chunks[0].Type)
	assert.Contains(t, chunks[0].Content, "Code Block (go):")
	assert.Contains(t, chunks[0].Content, "```go\nresp, err := http.Get(url)\n```")
	assert.Equal(t, "go", chunks[0].Metadata.Language)
	assert.Equal(t, "code_0", chunks[0].Metadata.CodeID)

	// Undetected language falls back to "text"
	assert.Contains(t, chunks[1].Content, "Code Block (text):")
	assert.Equal(t, "text", chunks[1].Metadata.Language)
}

func TestChunkIdempotent(t *testing.T) {
	// Re-running on identical input yields identical content and
	// metadata; only the generated IDs may differ.
	c := New(500)

	content := PageContent{
		Title: "API Guide",
		Sections: []Section{
			{Title: "Overview", Level: 1, Content: strings.Repeat("Intro text. ", 20), ID: "s0"},
			{Title: "Details", Level: 2, Content: strings.Repeat("Detail paragraph here. ", 40), ID: "s1"},
		},
		CodeBlocks: []CodeBlock{
			{Content: "curl https://api.example.com", Language: "bash", ID: "code_0"},
		},
	}

	first, err := c.Chunk(content, "https://example.com/docs")
	assert.NoError(t, err)
	second, err := c.Chunk(content, "https://example.com/docs")
	assert.NoError(t, err)

	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].Type, second[i].Type)
		assert.Equal(t, first[i].Metadata, second[i].Metadata)
	}
}

func TestChunkOrderFollowsSource(t *testing.T) {
	c := New(1000)

	content := PageContent{
		Title: "Guide",
		Sections: []Section{
			{Title: "First", Level: 2, Content: "a", ID: "s0"},
			{Title: "Second", Level: 2, Content: "b", ID: "s1"},
		},
		CodeBlocks: []CodeBlock{
			{Content: "x := 1", Language: "go", ID: "code_0"},
		},
	}

	chunks, err := c.Chunk(content, "https://example.com/docs")
	assert.NoError(t, err)
	assert.Len(t, chunks, 4)
	assert.Equal(t, ChunkTypeTitle, chunks[0].Type)
	assert.Equal(t, "First", chunks[1].Metadata.Section)
	assert.Equal(t, "Second", chunks[2].Metadata.Section)
	assert.Equal(t, ChunkTypeCode, chunks[3].Type)
}
