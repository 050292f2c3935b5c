package tools

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tactus-ai/tactus/pkg/httpclient"
)

// Pages are truncated to keep one observation from flooding the context.
const defaultFetchMaxLength = 4000

// Response bodies larger than this are cut off during read.
const maxFetchBytes = 2 << 20

var (
	// Noise subtrees are dropped wholesale before text extraction.
	noiseTagRe = regexp.MustCompile(`(?is)<(script|style|nav|header|footer|aside|noscript|menu)(\s[^>]*)?>.*?</(script|style|nav|header|footer|aside|noscript|menu)>`)
	// Semantic body candidates, tried before falling back to the page.
	articleRe = regexp.MustCompile(`(?is)<article(\s[^>]*)?>(.*?)</article>`)
	mainRe    = regexp.MustCompile(`(?is)<main(\s[^>]*)?>(.*?)</main>`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]+>`)
	spaceRe   = regexp.MustCompile(`[ \t]+`)
	blankRe   = regexp.MustCompile(`\n{3,}`)
)

// WebFetchTool retrieves one page and returns its readable text, typically
// chained after web_search to read a promising link.
type WebFetchTool struct {
	client *httpclient.Client
}

var _ Tool = (*WebFetchTool)(nil)

func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{
		client: httpclient.New(httpclient.WithTimeout(15 * time.Second)),
	}
}

type webFetchArgs struct {
	URL       string `json:"url" jsonschema:"required,description=Absolute URL of the page to fetch"`
	MaxLength int    `json:"max_length,omitempty" jsonschema:"description=Maximum characters of page text to return (default 4000)"`
}

func (t *WebFetchTool) Descriptor() Descriptor {
	return Descriptor{
		Name: "web_fetch",
		Description: "Fetch a web page and return its main text content, truncated to " +
			"max_length characters. Use after web_search to read a specific result.",
		Parameters: SchemaFor(&webFetchArgs{}),
		Tiers:      []Tier{TierL1, TierL3},
		Timeout:    20 * time.Second,
		Risk:       RiskRead,
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	url, _ := args["url"].(string)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return Fail("url must be an absolute http(s) URL"), nil
	}
	maxLength := defaultFetchMaxLength
	if v, ok := args["max_length"].(float64); ok && v > 0 {
		maxLength = int(v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Failf("invalid url: %v", err), nil
	}
	req.Header.Set("User-Agent", "tactus/1.0 (+https://github.com/tactus-ai/tactus)")

	resp, err := t.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return ToolResult{}, ctx.Err()
		}
		return Failf("fetch failed: %v", err), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return Failf("fetch read failed: %v", err), nil
	}

	text := htmlToText(string(raw))
	truncated := false
	// max_length counts characters; never split a multi-byte rune.
	if runes := []rune(text); len(runes) > maxLength {
		text = string(runes[:maxLength])
		truncated = true
	}

	return Success(map[string]any{
		"url":       url,
		"content":   text,
		"truncated": truncated,
	}), nil
}

// htmlToText extracts readable text: drop noise subtrees, prefer a
// semantic body (<article>, then <main>), strip remaining tags, decode the
// common entities, and compact whitespace.
func htmlToText(html string) string {
	html = noiseTagRe.ReplaceAllString(html, " ")

	body := html
	if m := articleRe.FindStringSubmatch(html); m != nil {
		body = m[2]
	} else if m := mainRe.FindStringSubmatch(html); m != nil {
		body = m[2]
	}

	// Block-level closers become newlines so paragraphs survive.
	for _, tag := range []string{"</p>", "</div>", "</li>", "</h1>", "</h2>", "</h3>", "</tr>", "<br>", "<br/>", "<br />"} {
		body = strings.ReplaceAll(body, tag, tag+"\n")
	}
	body = tagRe.ReplaceAllString(body, " ")

	replacer := strings.NewReplacer(
		"&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">",
		"&quot;", `"`, "&#39;", "'",
	)
	body = replacer.Replace(body)

	body = spaceRe.ReplaceAllString(body, " ")
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	body = strings.Join(lines, "\n")
	body = blankRe.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}
