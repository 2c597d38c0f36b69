package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"doc-agent-be/pkg/docs/chunker"
)

// ErrFetchFailed is returned when the page cannot be retrieved
// (network error or non-2xx status).
var ErrFetchFailed = errors.New("failed to fetch documentation page")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Scraper fetches a documentation page and extracts its content
// structure (title, headed sections, code blocks).
type Scraper struct {
	client *http.Client
}

func New(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves raw HTML from the URL
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d for %s", ErrFetchFailed, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return string(body), nil
}

// Extract parses HTML and pulls out the title, headed sections and code
// blocks. Script, style and chrome elements are discarded first.
func (s *Scraper) Extract(htmlContent string) (chunker.PageContent, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return chunker.PageContent{}, fmt.Errorf("parse html: %w", err)
	}

	stripIgnored(root)

	return chunker.PageContent{
		Title:      extractTitle(root),
		Sections:   extractSections(root),
		CodeBlocks: extractCodeBlocks(root),
	}, nil
}

var ignoredTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"footer": true,
	"header": true,
}

func stripIgnored(n *html.Node) {
	var next *html.Node
	for child := n.FirstChild; child != nil; child = next {
		next = child.NextSibling
		if child.Type == html.ElementNode && ignoredTags[child.Data] {
			n.RemoveChild(child)
			continue
		}
		stripIgnored(child)
	}
}

func extractTitle(root *html.Node) string {
	if title := findFirst(root, "title"); title != nil {
		if t := strings.TrimSpace(textContent(title)); t != "" {
			return t
		}
	}
	if h1 := findFirst(root, "h1"); h1 != nil {
		if t := strings.TrimSpace(textContent(h1)); t != "" {
			return t
		}
	}
	return "Untitled"
}

var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

// extractSections pairs each heading with the text that follows it,
// up to the next heading.
func extractSections(root *html.Node) []chunker.Section {
	headings := findAll(root, func(n *html.Node) bool {
		_, ok := headingLevels[n.Data]
		return n.Type == html.ElementNode && ok
	})

	var sections []chunker.Section
	for i, heading := range headings {
		section := chunker.Section{
			Title: strings.TrimSpace(textContent(heading)),
			Level: headingLevels[heading.Data],
			ID:    attr(heading, "id"),
		}
		if section.ID == "" {
			section.ID = fmt.Sprintf("section_%d", i)
		}

		var parts []string
		for sibling := heading.NextSibling; sibling != nil; sibling = sibling.NextSibling {
			if sibling.Type == html.ElementNode {
				if _, isHeading := headingLevels[sibling.Data]; isHeading {
					break
				}
			}
			if text := strings.TrimSpace(textContent(sibling)); text != "" {
				parts = append(parts, text)
			}
		}
		section.Content = strings.Join(parts, " ")

		if section.Content != "" {
			sections = append(sections, section)
		}
	}

	return sections
}

func extractCodeBlocks(root *html.Node) []chunker.CodeBlock {
	var blocks []chunker.CodeBlock

	nodes := findAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.Data == "pre" || n.Data == "code")
	})

	for _, node := range nodes {
		// Skip <code> nested inside <pre>; the <pre> owns it
		if node.Data == "code" && hasAncestor(node, "pre") {
			continue
		}

		content := strings.TrimSpace(textContent(node))
		if content == "" {
			continue
		}

		language := "text"
		if node.Data == "pre" {
			if inner := findFirst(node, "code"); inner != nil {
				if lang := languageFromClass(attr(inner, "class")); lang != "" {
					language = lang
				}
			}
		}

		blocks = append(blocks, chunker.CodeBlock{
			Content:  content,
			Language: language,
			ID:       fmt.Sprintf("code_%d", len(blocks)),
		})
	}

	return blocks
}

func languageFromClass(class string) string {
	for _, token := range strings.Fields(class) {
		if lang, found := strings.CutPrefix(token, "language-"); found && lang != "" {
			return lang
		}
	}
	return ""
}

// --- node helpers ---

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var result []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if match(node) {
			result = append(result, node)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return result
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var builder strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		builder.WriteString(textContent(child))
	}
	return builder.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAncestor(n *html.Node, tag string) bool {
	for parent := n.Parent; parent != nil; parent = parent.Parent {
		if parent.Type == html.ElementNode && parent.Data == tag {
			return true
		}
	}
	return false
}
