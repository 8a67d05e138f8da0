// Package seo serves sitemap.xml and robots.txt.
package seo

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Lister returns every venue. venues.Directory satisfies it.
type Lister interface {
	All(ctx context.Context) ([]models.Venue, error)
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

type staticPage struct {
	path       string
	changeFreq string
	priority   float64
}

var staticPages = []staticPage{
	{"", "daily", 1.0},
	{"/about", "monthly", 0.8},
	{"/venues", "daily", 0.9},
	{"/terms", "yearly", 0.3},
	{"/privacy", "yearly", 0.3},
}

// BuildSitemap lists the static pages followed by one entry per venue,
// newest first, dated by when the venue was posted.
func BuildSitemap(baseURL string, venues []models.Venue, now time.Time) URLSet {
	baseURL = strings.TrimRight(baseURL, "/")
	set := URLSet{XMLNS: sitemapNS, URLs: make([]URL, 0, len(staticPages)+len(venues))}

	today := now.UTC().Format(time.DateOnly)
	for _, p := range staticPages {
		set.URLs = append(set.URLs, URL{
			Loc:        baseURL + p.path,
			LastMod:    today,
			ChangeFreq: p.changeFreq,
			Priority:   p.priority,
		})
	}
	ordered := slices.Clone(venues)
	slices.SortStableFunc(ordered, func(a, b models.Venue) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	for _, v := range ordered {
		set.URLs = append(set.URLs, URL{
			Loc:        fmt.Sprintf("%s/venues/%s", baseURL, v.ID),
			LastMod:    v.CreatedAt.UTC().Format(time.DateOnly),
			ChangeFreq: "weekly",
			Priority:   0.7,
		})
	}
	return set
}

type Handler struct {
	*domain.BaseHandler
	venues  Lister
	baseURL string
	now     func() time.Time
}

func NewHandler(venues Lister, baseURL string, base *domain.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, venues: venues, baseURL: baseURL, now: time.Now}
}

// Sitemap handles GET /sitemap.xml. A store failure still yields the static pages.
func (h *Handler) Sitemap(c *gin.Context) {
	list, err := h.venues.All(c.Request.Context())
	if err != nil {
		h.Logger.Warn("Sitemap built without venues", zap.Error(err))
		list = nil
	}

	body, err := xml.MarshalIndent(BuildSitemap(h.baseURL, list, h.now()), "", "  ")
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

// Robots handles GET /robots.txt.
func (h *Handler) Robots(c *gin.Context) {
	c.String(http.StatusOK, Robots(h.baseURL))
}

// Robots allows everything except venue edit pages.
func Robots(baseURL string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /venues/*/edit\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Sitemap: %s/sitemap.xml\n", strings.TrimRight(baseURL, "/"))
	return b.String()
}
