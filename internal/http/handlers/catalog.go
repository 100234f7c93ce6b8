package handlers

import (
	"net/http"

	"petai/internal/domain"
)

type galleryItem struct {
	domain.GalleryExample
	Thumbnail string `json:"thumbnail"`
}

// Styles lists the style catalog, random sentinel first.
func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"styles": domain.Styles()})
}

// Gallery lists the before/after examples with their thumbnail paths.
func (a *App) Gallery(w http.ResponseWriter, r *http.Request) {
	examples := domain.Gallery()
	items := make([]galleryItem, 0, len(examples))
	for _, ex := range examples {
		items = append(items, galleryItem{GalleryExample: ex, Thumbnail: domain.ThumbnailPath(ex.Original)})
	}
	a.json(w, http.StatusOK, map[string]any{"examples": items})
}
