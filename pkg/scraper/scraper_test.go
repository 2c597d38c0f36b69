package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>HTTP Client Guide</title>
  <style>body { color: red; }</style>
  <script>console.log("tracking");</script>
</head>
<body>
  <nav>Home | Docs | About</nav>
  <h1 id="intro">Introduction</h1>
  <p>This guide covers the HTTP client.</p>
  <h2>Making requests</h2>
  <p>Use the get function to make requests.</p>
  <p>Responses carry a status code.</p>
  <pre><code class="language-python">resp = requests.get(url)</code></pre>
  <pre><code>plain snippet</code></pre>
  <footer>Copyright</footer>
</body>
</html>`

func TestExtract(t *testing.T) {
	s := New(30 * time.Second)

	content, err := s.Extract(samplePage)
	assert.NoError(t, err)

	assert.Equal(t, "HTTP Client Guide", content.Title)

	assert.Len(t, content.Sections, 2)
	assert.Equal(t, "Introduction", content.Sections[0].Title)
	assert.Equal(t, 1, content.Sections[0].Level)
	assert.Equal(t, "intro", content.Sections[0].ID)
	assert.Equal(t, "This guide covers the HTTP client.", content.Sections[0].Content)

	assert.Equal(t, "Making requests", content.Sections[1].Title)
	assert.Equal(t, 2, content.Sections[1].Level)
	assert.Equal(t, "section_1", content.Sections[1].ID)
	assert.Contains(t, content.Sections[1].Content, "status code")

	assert.Len(t, content.CodeBlocks, 2)
	assert.Equal(t, "resp = requests.get(url)", content.CodeBlocks[0].Content)
	assert.Equal(t, "python", content.CodeBlocks[0].Language)
	assert.Equal(t, "code_0", content.CodeBlocks[0].ID)
	assert.Equal(t, "text", content.CodeBlocks[1].Language)
}

func TestExtractIgnoresChrome(t *testing.T) {
	s := New(30 * time.Second)

	content, err := s.Extract(samplePage)
	assert.NoError(t, err)

	for _, section := range content.Sections {
		assert.NotContains(t, section.Content, "tracking")
		assert.NotContains(t, section.Content, "color: red")
		assert.NotContains(t, section.Content, "Home | Docs")
		assert.NotContains(t, section.Content, "Copyright")
	}
}

func TestExtractTitleFallback(t *testing.T) {
	s := New(30 * time.Second)

	content, err := s.Extract(`<html><body><h1>Only Heading</h1><p>text</p></body></html>`)
	assert.NoError(t, err)
	assert.Equal(t, "Only Heading", content.Title)

	content, err = s.Extract(`<html><body><p>no headings at all</p></body></html>`)
	assert.NoError(t, err)
	assert.Equal(t, "Untitled", content.Title)
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	s := New(5 * time.Second)
	body, err := s.Fetch(context.Background(), server.URL)
	assert.NoError(t, err)
	assert.Contains(t, body, "ok")
}

func TestFetchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := New(5 * time.Second)
	_, err := s.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrFetchFailed)
}
