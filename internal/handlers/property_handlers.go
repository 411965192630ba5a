package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/google/go-querystring/query"
)

// SearchProperties lists properties matching ?destination= on name or location.
func (h *Handlers) SearchProperties(w http.ResponseWriter, r *http.Request) {
	q := domain.PropertyQuery{Destination: r.URL.Query().Get("destination")}
	q.Limit, q.Offset = parsePagination(r)
	q.Normalize()

	props, err := h.propertyService.Search(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if q.Paged() && len(props) == q.Limit {
		next := q
		next.Offset += q.Limit
		if v, err := query.Values(next); err == nil {
			w.Header().Set("Link", fmt.Sprintf(`<%s?%s>; rel="next"`, r.URL.Path, v.Encode()))
		}
	}

	writeJSON(w, http.StatusOK, props)
}

func (h *Handlers) ListMyProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.propertyService.ListMine(r.Context(), currentUser(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *Handlers) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var in domain.PropertyInput
	if err := h.decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	p, err := h.propertyService.Create(r.Context(), currentUser(r), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.propertyService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var in domain.PropertyInput
	if err := h.decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	p, err := h.propertyService.Update(r.Context(), currentUser(r), id, &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.propertyService.Delete(r.Context(), currentUser(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Property deleted successfully"})
}

// parsePagination reads the optional limit and offset. Without a limit the
// whole result set is returned. PropertyQuery.Normalize clamps the limit.
func parsePagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
