package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Chunker partitions extracted page content into size-bounded,
// context-preserving chunks for retrieval.
type Chunker struct {
	maxChunkSize int
}

func New(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	return &Chunker{maxChunkSize: maxChunkSize}
}

// Chunk transforms page content into an ordered chunk list.
// Order follows the source document but carries no ranking meaning;
// the retriever re-ranks by similarity.
func (c *Chunker) Chunk(content PageContent, url string) ([]Chunk, error) {
	var chunks []Chunk

	// Title chunk is unbounded; titles are short in practice.
	if content.Title != "" {
		chunks = append(chunks, Chunk{
			ID:      uuid.New().String(),
			Content: "Title: " + content.Title,
			Type:    ChunkTypeTitle,
			Metadata: Metadata{
				URL:       url,
				Section:   "title",
				ChunkType: ChunkTypeTitle,
			},
		})
	}

	for _, section := range content.Sections {
		if len(section.Content) <= c.maxChunkSize {
			chunks = append(chunks, Chunk{
				ID:      uuid.New().String(),
				Content: fmt.Sprintf("%s\n\n%s", section.Title, section.Content),
				Type:    ChunkTypeSection,
				Metadata: Metadata{
					URL:       url,
					Section:   section.Title,
					SectionID: section.ID,
					Level:     section.Level,
					ChunkType: ChunkTypeSection,
				},
			})
		} else {
			chunks = append(chunks, c.splitSection(section, url)...)
		}
	}

	for _, block := range content.CodeBlocks {
		language := block.Language
		if language == "" {
			language = "text"
		}
		chunks = append(chunks, Chunk{
			ID:      uuid.New().String(),
			Content: fmt.Sprintf("Code Block (%s):\n```%s\n%s\n```", language, language, block.Content),
			Type:    ChunkTypeCode,
			Metadata: Metadata{
				URL:       url,
				Language:  language,
				CodeID:    block.ID,
				ChunkType: ChunkTypeCode,
			},
		})
	}

	if len(chunks) == 0 {
		return nil, ErrNoContentExtracted
	}

	return chunks, nil
}

// splitSection greedily accumulates whole paragraphs into buffers seeded
// with the section title ("<title> (continued)" after the first flush).
// Paragraphs are never split mid-way, so a chunk may overshoot the bound
// by up to one paragraph's length.
func (c *Chunker) splitSection(section Section, url string) []Chunk {
	var chunks []Chunk

	makePart := func(content string) Chunk {
		return Chunk{
			ID:      uuid.New().String(),
			Content: content,
			Type:    ChunkTypeSectionPart,
			Metadata: Metadata{
				URL:       url,
				Section:   section.Title,
				SectionID: section.ID,
				Level:     section.Level,
				ChunkType: ChunkTypeSectionPart,
			},
		}
	}

	paragraphs := strings.Split(section.Content, "\n\n")
	current := section.Title + "\n\n"

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if len(current)+len(paragraph) > c.maxChunkSize && strings.TrimSpace(current) != "" {
			chunks = append(chunks, makePart(strings.TrimSpace(current)))
			current = section.Title + " (continued)\n\n"
		}

		current += paragraph + "\n\n"
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, makePart(strings.TrimSpace(current)))
	}

	return chunks
}
