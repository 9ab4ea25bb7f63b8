package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/johiruljahid/nsultan/internal/catalog"
	"github.com/johiruljahid/nsultan/internal/media"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/store"
	"github.com/johiruljahid/nsultan/internal/websocket"
)

// CatalogHandler serves the menu, categories and gallery, publicly for reads
// and behind the admin gate for writes.
type CatalogHandler struct {
	menuStore     *store.MenuStore
	galleryStore  *store.GalleryStore
	categoryStore *store.CategoryStore
	media         *media.Store
	hub           *websocket.Hub
	logger        *slog.Logger
}

// NewCatalogHandler wires the catalog endpoints. ms may be nil when object
// storage is not configured.
func NewCatalogHandler(menu *store.MenuStore, gallery *store.GalleryStore, categories *store.CategoryStore, ms *media.Store, hub *websocket.Hub, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		menuStore:     menu,
		galleryStore:  gallery,
		categoryStore: categories,
		media:         ms,
		hub:           hub,
		logger:        logger,
	}
}

func (h *CatalogHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// ListMenu handles GET /api/menu?category=&popular=
func (h *CatalogHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menuStore.List()
	if err != nil {
		h.logger.Error("list menu", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list menu")
		return
	}
	items = catalog.Filter(items, catalog.NormalizeCategory(r.URL.Query().Get("category")))
	if r.URL.Query().Get("popular") == "true" {
		items = catalog.Popular(items)
	}
	if items == nil {
		items = []model.FoodItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetMenuItem handles GET /api/menu/{id}
func (h *CatalogHandler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.menuStore.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get menu item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get menu item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CreateMenuItem handles POST /api/admin/menu
func (h *CatalogHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var item model.FoodItem
	if !decodeJSON(w, r, &item) {
		return
	}
	if !h.validItem(w, &item) {
		return
	}

	if item.ID != "" {
		existing, err := h.menuStore.GetByID(item.ID)
		if err != nil {
			h.logger.Error("get menu item", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create menu item")
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "menu item already exists")
			return
		}
	}

	created, err := h.menuStore.Create(item)
	if err != nil {
		h.logger.Error("create menu item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create menu item")
		return
	}
	h.logger.Info("menu item created", "id", created.ID)
	h.broadcast(websocket.NewMessage(websocket.EntityMenuItem, websocket.ActionCreated, created.ID, created))
	writeJSON(w, http.StatusCreated, created)
}

// UpdateMenuItem handles PUT /api/admin/menu/{id}
func (h *CatalogHandler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var item model.FoodItem
	if !decodeJSON(w, r, &item) {
		return
	}
	if !h.validItem(w, &item) {
		return
	}

	previous, err := h.menuStore.GetByID(id)
	if err != nil {
		h.logger.Error("get menu item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update menu item")
		return
	}
	if previous == nil {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	updated, err := h.menuStore.Update(id, item)
	if err != nil {
		h.logger.Error("update menu item", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update menu item")
		return
	}
	if previous.Image != updated.Image {
		h.removeImage(r.Context(), previous.Image)
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMenuItem, websocket.ActionUpdated, id, updated))
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMenuItem handles DELETE /api/admin/menu/{id}
func (h *CatalogHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := h.menuStore.GetByID(id)
	if err != nil {
		h.logger.Error("get menu item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete menu item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	if _, err := h.menuStore.Delete(id); err != nil {
		h.logger.Error("delete menu item", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete menu item")
		return
	}
	h.removeImage(r.Context(), item.Image)

	h.logger.Info("menu item deleted", "id", id)
	h.broadcast(websocket.NewMessage(websocket.EntityMenuItem, websocket.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) validItem(w http.ResponseWriter, item *model.FoodItem) bool {
	item.NameEn = strings.TrimSpace(item.NameEn)
	item.NameBn = strings.TrimSpace(item.NameBn)
	item.Category = catalog.NormalizeCategory(item.Category)

	if problems := catalog.Validate(*item); len(problems) > 0 {
		writeProblems(w, problems)
		return false
	}
	ok, err := h.categoryStore.Exists(item.Category)
	if err != nil {
		h.logger.Error("check category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check category")
		return false
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown category")
		return false
	}
	return true
}

// ListCategories handles GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categoryStore.List()
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if cats == nil {
		cats = []model.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// AddCategory handles POST /api/admin/categories. Adding a name that already
// exists succeeds without changes.
func (h *CatalogHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	name := catalog.NormalizeCategory(req.Name)
	if name == "" || name == catalog.All {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.categoryStore.Add(name)
	if err != nil {
		h.logger.Error("add category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add category")
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, map[string]any{"name": name, "created": false})
		return
	}
	h.broadcast(websocket.NewMessage(websocket.EntityCategory, websocket.ActionCreated, name, map[string]string{"name": name}))
	writeJSON(w, http.StatusCreated, map[string]any{"name": name, "created": true})
}

// ListGallery handles GET /api/gallery
func (h *CatalogHandler) ListGallery(w http.ResponseWriter, r *http.Request) {
	images, err := h.galleryStore.List()
	if err != nil {
		h.logger.Error("list gallery", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list gallery")
		return
	}
	if images == nil {
		images = []model.GalleryImage{}
	}
	writeJSON(w, http.StatusOK, images)
}

// CreateGalleryImage handles POST /api/admin/gallery
func (h *CatalogHandler) CreateGalleryImage(w http.ResponseWriter, r *http.Request) {
	var img model.GalleryImage
	if !decodeJSON(w, r, &img) {
		return
	}
	img.URL = strings.TrimSpace(img.URL)
	img.Title = strings.TrimSpace(img.Title)
	if img.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if img.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	created, err := h.galleryStore.Create(img)
	if err != nil {
		h.logger.Error("create gallery image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create gallery image")
		return
	}
	h.broadcast(websocket.NewMessage(websocket.EntityGallery, websocket.ActionCreated, created.ID, created))
	writeJSON(w, http.StatusCreated, created)
}

// DeleteGalleryImage handles DELETE /api/admin/gallery/{id}
func (h *CatalogHandler) DeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	img, err := h.galleryStore.GetByID(id)
	if err != nil {
		h.logger.Error("get gallery image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete gallery image")
		return
	}
	if img == nil {
		writeError(w, http.StatusNotFound, "gallery image not found")
		return
	}

	if _, err := h.galleryStore.Delete(id); err != nil {
		h.logger.Error("delete gallery image", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete gallery image")
		return
	}
	h.removeImage(r.Context(), img.URL)

	h.broadcast(websocket.NewMessage(websocket.EntityGallery, websocket.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// removeImage deletes an uploaded object once nothing points at it. Images
// hosted elsewhere are left alone.
func (h *CatalogHandler) removeImage(ctx context.Context, url string) {
	if h.media == nil || url == "" {
		return
	}
	key, ok := h.media.KeyFromURL(url)
	if !ok {
		return
	}
	if err := h.media.Delete(ctx, key); err != nil {
		h.logger.Warn("delete image object", "key", key, "error", err)
	}
}
