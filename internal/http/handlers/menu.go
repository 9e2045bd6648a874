package handlers

import (
	"net/http"
	"sort"

	"github.com/Nemanja264/Servizo/internal/api"
	"github.com/Nemanja264/Servizo/pkg/response"
)

type menuCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Menu proxies the menu read and derives the category list from the items,
// the way the menu screen renders its category bar.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.API.MenuItems(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}

	seen := make(map[string]menuCategory)
	for _, item := range items {
		if item.CategoryID == "" {
			continue
		}
		if _, ok := seen[item.CategoryID]; !ok {
			name := item.Category
			if name == "" {
				name = item.CategoryID
			}
			seen[item.CategoryID] = menuCategory{ID: item.CategoryID, Name: name}
		}
	}
	categories := make([]menuCategory, 0, len(seen))
	for _, c := range seen {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })

	if items == nil {
		items = []api.MenuItem{}
	}
	response.Success(w, map[string]any{"items": items, "categories": categories})
}

func (h *Handler) FavoritesList(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.API.Favorites(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}
	if favorites == nil {
		favorites = []api.MenuItem{}
	}
	response.Success(w, map[string]any{"favorites": favorites})
}

func (h *Handler) FavoritesAdd(w http.ResponseWriter, r *http.Request) {
	itemID := readPathString(r, "itemID")
	if itemID == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item id is required")
		return
	}
	if err := h.API.AddFavorite(r.Context(), itemID); err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, map[string]any{"added": itemID})
}

func (h *Handler) FavoritesRemove(w http.ResponseWriter, r *http.Request) {
	itemID := readPathString(r, "itemID")
	if itemID == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item id is required")
		return
	}
	if err := h.API.RemoveFavorite(r.Context(), itemID); err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, map[string]any{"removed": itemID})
}
