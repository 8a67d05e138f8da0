package seo

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/domain"
	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

type fakeLister struct {
	venues []models.Venue
	err    error
}

func (f fakeLister) All(context.Context) ([]models.Venue, error) { return f.venues, f.err }

func TestBuildSitemap(t *testing.T) {
	older := models.Venue{ID: uuid.New(), CreatedAt: time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)}
	newer := models.Venue{ID: uuid.New(), CreatedAt: time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC)}
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	input := []models.Venue{older, newer}
	set := BuildSitemap("https://example.jp/", input, now)

	require.Len(t, set.URLs, len(staticPages)+2)
	assert.Equal(t, "https://example.jp", set.URLs[0].Loc)
	assert.Equal(t, "2024-07-01", set.URLs[0].LastMod)

	venueURLs := set.URLs[len(staticPages):]
	assert.Equal(t, "https://example.jp/venues/"+newer.ID.String(), venueURLs[0].Loc)
	assert.Equal(t, "2024-06-02", venueURLs[0].LastMod)
	assert.Equal(t, "2024-03-01", venueURLs[1].LastMod)

	// The caller's slice is not reordered.
	assert.Equal(t, older.ID, input[0].ID)
}

func TestSitemapHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := models.Venue{ID: uuid.New(), CreatedAt: time.Now()}

	serve := func(l Lister) *httptest.ResponseRecorder {
		h := NewHandler(l, "https://example.jp", domain.NewBaseHandler(zap.NewNop()))
		r := gin.New()
		r.GET("/sitemap.xml", h.Sitemap)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
		return w
	}

	w := serve(fakeLister{venues: []models.Venue{v}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), xml.Header))
	assert.Contains(t, w.Body.String(), `xmlns="`+sitemapNS+`"`)

	var set URLSet
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &set))
	assert.Len(t, set.URLs, len(staticPages)+1)

	// A failing store still serves the static pages.
	w = serve(fakeLister{err: errors.New("db down")})
	require.Equal(t, http.StatusOK, w.Code)
	set = URLSet{}
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &set))
	assert.Len(t, set.URLs, len(staticPages))
}

func TestRobots(t *testing.T) {
	body := Robots("https://example.jp/")
	assert.Contains(t, body, "User-agent: *\nAllow: /\nDisallow: /venues/*/edit\n")
	assert.Contains(t, body, "Sitemap: https://example.jp/sitemap.xml")
}
