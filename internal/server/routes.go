package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lazypower/thoughtgraph/internal/graph"
	"github.com/lazypower/thoughtgraph/internal/store"
)

// kindPaths maps the plural URL segment to a content kind.
var kindPaths = map[string]graph.Kind{
	"topics":   graph.KindTopic,
	"thoughts": graph.KindThought,
	"quotes":   graph.KindQuote,
	"passages": graph.KindPassage,
}

const maxItemBody = 1 << 20

func (s *Server) handleGraphData(w http.ResponseWriter, r *http.Request) {
	snap, err := s.db.GraphSnapshot()
	if err != nil {
		s.logger.Error("graph snapshot", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindPaths[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown collection")
		return
	}

	page, err := intParam(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	pageSize, err := intParam(r, "page_size", store.DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page_size must be an integer")
		return
	}

	p, err := s.db.ListItems(kind, page, pageSize)
	if err != nil {
		s.logger.Error("list items", zap.String("kind", string(kind)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch "+chi.URLParam(r, "kind"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindPaths[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown collection")
		return
	}

	it, err := s.db.GetItem(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if it == nil || it.Kind != kind {
		writeError(w, http.StatusNotFound, string(kind)+" not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var it store.Item
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxItemBody)).Decode(&it); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if it.ID != "" {
		existing, err := s.db.GetItem(it.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "item already exists")
			return
		}
	}
	if it.ParentID != "" {
		parent, err := s.db.GetItem(it.ParentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if parent == nil {
			writeError(w, http.StatusBadRequest, "parent not found")
			return
		}
	}

	if err := s.db.CreateItem(&it); err != nil {
		if errors.Is(err, store.ErrInvalidItem) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("create item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	items, err := s.db.Search(q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"results": items,
		"count":   len(items),
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.db.ListTags()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": tags})
}

func (s *Server) handleTagItems(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	items, err := s.db.ItemsByTag(tag)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tag":     tag,
		"results": items,
		"count":   len(items),
	})
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	roots, err := s.db.TopicHierarchy()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, roots)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.db.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
