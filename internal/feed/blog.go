package feed

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultCategory = "JoinSangha Teams Blog"

type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	AuthorImage string `json:"authorImage"`
	Date        string `json:"date"`
	Image       string `json:"image"`
	Image2      string `json:"image2"`
	Image3      string `json:"image3"`
	ContentPost string `json:"contentPost"`
	Category    string `json:"category"`
	Published   bool   `json:"published"`
}

// fallbackPosts is served when the sheet cannot be read.
var fallbackPosts = []Post{{
	ID:          "1",
	Title:       "Let Meditation Change Your Perspective – Stop the Nagging Habit Today",
	Content:     `We've all heard the phrase, "The glass is half full or half empty." The difference lies in perspective...`,
	Author:      "Jiaru Cai",
	AuthorImage: "/jiaru-cai.png",
	Date:        "May 22, 2024",
	Image:       "/jiaru-blog.png",
	Category:    defaultCategory,
	Published:   true,
}}

var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	time.RFC3339,
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]`)
var dashes = regexp.MustCompile(`-+`)

type Blog struct {
	fetcher *Fetcher
	url     string
	log     *zap.Logger
	now     func() time.Time
}

func NewBlog(fetcher *Fetcher, url string, log *zap.Logger) *Blog {
	return &Blog{fetcher: fetcher, url: url, log: log, now: time.Now}
}

// Posts returns the sheet's posts newest first, or the fallback list when the
// sheet is unavailable.
func (b *Blog) Posts(ctx context.Context) []Post {
	t, err := b.fetcher.Fetch(ctx, b.url)
	if err != nil {
		b.log.Warn("blog feed unavailable, serving fallback posts", zap.Error(err))
		return append([]Post(nil), fallbackPosts...)
	}
	return postsFromTable(t, b.now())
}

func postsFromTable(t *Table, now time.Time) []Post {
	posts := make([]Post, 0, len(t.Rows))
	for i, rec := range t.Records() {
		p := Post{
			ID:          rec["id"],
			Title:       rec["title"],
			Content:     rec["content"],
			Author:      rec["author"],
			AuthorImage: rec["authorimage"],
			Date:        rec["date"],
			Image:       rec["image"],
			Image2:      rec["image2"],
			Image3:      rec["image3"],
			ContentPost: rec["contentpost"],
			Category:    rec["category"],
		}
		if p.Title == "" || p.Content == "" {
			continue
		}
		if p.ID == "" {
			p.ID = Slug(p.Title)
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("post-%d", i+1)
		}
		if p.Date == "" {
			p.Date = now.Format("January 2, 2006")
		}
		if p.Category == "" {
			p.Category = defaultCategory
		}
		p.Published = published(rec["published"])
		posts = append(posts, p)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return parseDate(posts[i].Date).After(parseDate(posts[j].Date))
	})
	return posts
}

// Slug lower-cases title and replaces each run of other characters with one dash.
func Slug(title string) string {
	return dashes.ReplaceAllString(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// published treats a blank cell as published; otherwise only "true" or "1" count.
func published(v string) bool {
	if v == "" {
		return true
	}
	return strings.EqualFold(v, "true") || v == "1"
}

// parseDate returns the zero time for unrecognised dates so they sort last.
func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
