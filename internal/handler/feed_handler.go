package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/feeds"
	"github.com/hitoshi/blog/internal/model"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/xml"
)

// defaultFeedSize はAtomフィードに含める記事数のデフォルト値。
const defaultFeedSize = 20

// LatestPostsLister はフィード生成に必要な最新記事の取得インターフェース。
type LatestPostsLister interface {
	Latest(ctx context.Context, limit int) ([]*model.Post, error)
}

// FeedHandlerConfig はAtomフィードの設定。
type FeedHandlerConfig struct {
	BaseURL   string // 記事の絶対URLの生成に使う（末尾スラッシュなし）
	SiteTitle string
	Size      int
}

// FeedHandler は公開記事のAtomフィードを配信するHTTPハンドラー。
type FeedHandler struct {
	posts    LatestPostsLister
	markdown MarkdownRenderer
	config   FeedHandlerConfig
	minifier *minify.M
	now      func() time.Time
}

// MarkdownRenderer は記事本文をサニタイズ済みHTMLに変換するインターフェース。
type MarkdownRenderer interface {
	Render(markdown string) string
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(posts LatestPostsLister, markdown MarkdownRenderer, config FeedHandlerConfig) *FeedHandler {
	if config.Size <= 0 {
		config.Size = defaultFeedSize
	}
	return &FeedHandler{
		posts:    posts,
		markdown: markdown,
		config:   config,
		minifier: newFeedMinifier(),
		now:      time.Now,
	}
}

// Atom は最新の公開記事をAtom形式で返す。
// GET /feed.atom
func (h *FeedHandler) Atom(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.Latest(r.Context(), h.config.Size)
	if err != nil {
		slog.Error("failed to list posts for feed", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	atom, err := h.buildFeed(posts).ToAtom()
	if err != nil {
		slog.Error("failed to generate atom feed", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	body := h.minify(atom)
	etag := feedETag(body)

	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// newFeedMinifier はAtom用のXMLミニファイアを生成する。
// 記事本文の<pre>を崩さないよう空白は保持する。
func newFeedMinifier() *minify.M {
	m := minify.New()
	m.Add("application/atom+xml", &xml.Minifier{KeepWhitespace: true})
	return m
}

// minify はAtomを圧縮する。失敗した場合は元のXMLをそのまま返す。
func (h *FeedHandler) minify(atom string) []byte {
	var buf bytes.Buffer
	if err := h.minifier.Minify("application/atom+xml", &buf, strings.NewReader(atom)); err != nil {
		slog.Warn("failed to minify atom feed", slog.String("error", err.Error()))
		return []byte(atom)
	}
	return buf.Bytes()
}

// feedETag は本文のxxhashから強いETagを生成する。
func feedETag(body []byte) string {
	d := make([]byte, 8)
	binary.BigEndian.PutUint64(d, xxhash.Sum64(body))
	return `"` + base64.StdEncoding.EncodeToString(d) + `"`
}

// etagMatches はIf-None-Matchの値（カンマ区切りのリストまたは*）がetagに一致するかを返す。
// If-None-Matchは弱い比較のため W/ 接頭辞は無視する。
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (h *FeedHandler) buildFeed(posts []*model.Post) *feeds.Feed {
	// フィードの更新日時は最新記事の公開日時。記事がなければ現在時刻
	updated := h.now().UTC()
	if len(posts) > 0 && posts[0].PublishedAt != nil {
		updated = posts[0].PublishedAt.UTC()
	}

	feed := &feeds.Feed{
		Title:   h.config.SiteTitle,
		Link:    &feeds.Link{Href: h.config.BaseURL + "/"},
		Id:      h.config.BaseURL + "/",
		Updated: updated,
		Items:   make([]*feeds.Item, 0, len(posts)),
	}

	for _, p := range posts {
		if p.PublishedAt == nil {
			continue
		}
		link := h.config.BaseURL + postPath(p.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:      link,
			Title:   p.Title,
			Link:    &feeds.Link{Href: link},
			Author:  &feeds.Author{Name: p.AuthorUsername},
			Content: h.markdown.Render(p.Content),
			Created: p.PublishedAt.UTC(),
			Updated: p.PublishedAt.UTC(),
		})
	}

	return feed
}
