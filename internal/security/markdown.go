package security

import (
	"github.com/russross/blackfriday/v2"
)

// markdownExtensions は記事本文で有効にするMarkdown拡張。
const markdownExtensions = blackfriday.CommonExtensions

// MarkdownRenderer は記事本文のMarkdownを安全なHTMLに変換する。
// blackfridayの出力は生HTMLを素通しするため、必ずサニタイザを通してから返す。
type MarkdownRenderer struct {
	sanitizer ContentSanitizer
}

// NewMarkdownRenderer はMarkdownRendererを生成する。
func NewMarkdownRenderer(sanitizer ContentSanitizer) *MarkdownRenderer {
	return &MarkdownRenderer{sanitizer: sanitizer}
}

// Render はMarkdownをHTMLに変換し、サニタイズ済みの文字列を返す。
func (r *MarkdownRenderer) Render(markdown string) string {
	if markdown == "" {
		return ""
	}
	raw := blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(markdownExtensions))
	return r.sanitizer.Sanitize(string(raw))
}
