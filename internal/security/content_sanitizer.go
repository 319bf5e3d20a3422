// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は記事本文から生成したHTMLをサニタイズし、
// XSS攻撃などのセキュリティリスクから閲覧者を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// Markdownから変換したHTMLを画面・フィードへ出力する直前に使用される。
type ContentSanitizer interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// script, iframe, style, form等のタグおよびon*イベント属性を除去する。
	// URLはhttp, https, mailtoスキームと相対URLのみ許可される。
	// 外部リンクにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーは生成後に変更しないためスレッドセーフに使える。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// codeLanguageClass はフェンス付きコードブロックに付く "language-go" 形式のクラス。
var codeLanguageClass = regexp.MustCompile(`^language-[a-zA-Z0-9_+-]+$`)

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: 見出し, 段落, リスト, 引用, コード, 強調, 表, 水平線, a, img
//   - 禁止タグ: script, iframe, style, form, object, embed および全てのon*イベント属性
//   - URLスキーム: http, https, mailto と相対URL
//   - aタグ: 絶対URLには target="_blank" と rel="noopener noreferrer" を付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "del",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("class").Matching(codeLanguageClass).OnElements("code")
	p.AllowAttrs("align").Matching(regexp.MustCompile(`^(left|center|right)$`)).OnElements("th", "td")

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt", "title").OnElements("img")

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// compile-time interface check
var _ ContentSanitizer = (*contentSanitizer)(nil)
