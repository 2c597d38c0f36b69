package chunker

import "errors"

// ErrNoContentExtracted is returned when a page yields zero chunks.
// Ingestion treats this as a hard failure: a scope with an empty index
// would silently answer every question with "not found".
var ErrNoContentExtracted = errors.New("no content extracted from page")

// Chunk types. Section chunks that had to be split carry
// "section_part" so retrieval can tell them from whole sections.
const (
	ChunkTypeTitle       = "title"
	ChunkTypeSection     = "section"
	ChunkTypeSectionPart = "section_part"
	ChunkTypeCode        = "code"
)

// Metadata is the retrieval metadata attached to every chunk
type Metadata struct {
	URL       string `json:"url"`
	Section   string `json:"section,omitempty"`
	SectionID string `json:"section_id,omitempty"`
	Level     int    `json:"level,omitempty"`
	ChunkType string `json:"chunk_type"`
	Language  string `json:"language,omitempty"`
	CodeID    string `json:"code_id,omitempty"`
}

// Chunk is a bounded unit of page content. Content never exceeds the
// configured max chunk size except for title chunks and the documented
// one-paragraph overshoot of section parts.
type Chunk struct {
	ID       string
	Content  string
	Type     string
	Metadata Metadata
}

// Section is a headed region of the source page, in source order
type Section struct {
	Title   string
	Level   int // 1..6
	Content string
	ID      string
}

// CodeBlock is a fenced or <pre> code region of the source page
type CodeBlock struct {
	Content  string
	Language string
	ID       string
}

// PageContent is the extracted content of one documentation page
type PageContent struct {
	Title      string
	Sections   []Section
	CodeBlocks []CodeBlock
}
