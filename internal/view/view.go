// Package view はHTMLテンプレートの描画を提供する。
// テンプレートはバイナリに埋め込み、起動時に1回だけパースする。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/hitoshi/blog/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページテンプレート名
const (
	PagePostList    = "post_list.html"
	PagePostDetail  = "post_detail.html"
	PagePostEdit    = "post_edit.html"
	PageAuthorsList = "authors_list.html"
	PageLogin       = "login.html"
	PageError       = "error.html"
)

var pageNames = []string{
	PagePostList,
	PagePostDetail,
	PagePostEdit,
	PageAuthorsList,
	PageLogin,
	PageError,
}

const layoutName = "base.html"

// MarkdownRenderer はMarkdownを安全なHTML文字列に変換するインターフェース。
type MarkdownRenderer interface {
	Render(markdown string) string
}

// Base は全ページ共通のテンプレートデータ。
type Base struct {
	CurrentUser *model.User
	CSRFToken   string
	Path        string
}

// PostListPage は記事一覧ページ（全件・著者絞り込み）のデータ。
type PostListPage struct {
	Base
	Posts          []*model.Post
	Authors        []string
	SelectedAuthor string
}

// PostDetailPage は記事詳細ページのデータ。
type PostDetailPage struct {
	Base
	Post *model.Post
}

// PostEditPage は記事作成・編集フォームのデータ。
// PostIDが0の場合は新規作成として扱う。
type PostEditPage struct {
	Base
	PostID  int64
	Title   string
	Content string
	Errors  model.FieldErrors
}

// AuthorsPage は著者一覧ページのデータ。
type AuthorsPage struct {
	Base
	Authors         []model.AuthorSummary
	AuthorUsernames []string
}

// LoginPage はログインフォームのデータ。
type LoginPage struct {
	Base
	Username string
	Next     string
	Error    string
}

// ErrorPage はエラーページのデータ。
type ErrorPage struct {
	Base
	Status  int
	Message string
}

// Renderer は埋め込みテンプレートからHTMLを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer はレイアウトと各ページのテンプレートをパースしてRendererを生成する。
func NewRenderer(md MarkdownRenderer, siteTitle string) (*Renderer, error) {
	funcs := template.FuncMap{
		"siteTitle": func() string { return siteTitle },
		"markdown": func(s string) template.HTML {
			// サニタイズ済みの出力のみをHTMLとして扱う
			return template.HTML(md.Render(s))
		},
		"formatDate": formatDate,
		"isoDate":    isoDate,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(layoutName).Funcs(funcs).ParseFS(templateFS, "templates/"+layoutName, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render はページをバッファに描画してから、ステータスコードとともにレスポンスに書き込む。
// 描画に失敗した場合はレスポンスに何も書き込まずエラーを返す。
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("template %s does not exist", page)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
