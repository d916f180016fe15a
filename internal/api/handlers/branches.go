// Package handlers implements the HTTP API surface: branches,
// transactions, reports, and account management.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dohyunkim/moneytree/internal/api/middleware"
	"github.com/dohyunkim/moneytree/internal/cascade"
	"github.com/dohyunkim/moneytree/internal/domain"
	"github.com/dohyunkim/moneytree/internal/pathtree"
	"github.com/dohyunkim/moneytree/internal/store"
)

// BranchesHandler handles the branch tree endpoints.
type BranchesHandler struct {
	branches    store.BranchStore
	coordinator *cascade.Coordinator
	log         zerolog.Logger
}

// NewBranchesHandler creates a new branches handler.
func NewBranchesHandler(branches store.BranchStore, coordinator *cascade.Coordinator, log zerolog.Logger) *BranchesHandler {
	return &BranchesHandler{
		branches:    branches,
		coordinator: coordinator,
		log:         log,
	}
}

// Tree handles GET /api/tree. The root branch is created on first access
// for accounts that somehow lack one.
func (h *BranchesHandler) Tree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	branches, err := h.branches.ListByOwner(ctx, ownerID)
	if err != nil {
		h.log.Error().Err(err).Int64("uid", ownerID).Msg("failed to list branches")
		middleware.WriteDomainError(w, err)
		return
	}

	if len(branches) == 0 {
		root, err := h.branches.Create(ctx, ownerID, domain.RootBranch)
		if err != nil {
			h.log.Error().Err(err).Int64("uid", ownerID).Msg("failed to create root branch")
			middleware.WriteDomainError(w, err)
			return
		}
		branches = []domain.Branch{root}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{"message": branches})
}

// Create handles POST /api/branches with a {parent, child} body.
func (h *BranchesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		Parent string `json:"parent"`
		Child  string `json:"child"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Parent == "" || req.Child == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Parent and child are required")
		return
	}

	parentExists, err := h.branches.Exists(ctx, ownerID, req.Parent)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if !parentExists {
		middleware.WriteDomainError(w, domain.InvalidInputf("invalid parent path - %s", req.Parent))
		return
	}

	path := pathtree.Join(req.Parent, req.Child)
	branch, err := h.branches.Create(ctx, ownerID, path)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{"message": branch})
}

// Delete handles DELETE /api/branches?path=... and cascades over the
// whole subtree.
func (h *BranchesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Branch path is required")
		return
	}

	res, err := h.coordinator.DeleteSubtree(ctx, ownerID, path)
	if err != nil {
		h.log.Error().Err(err).Int64("uid", ownerID).Str("path", path).Msg("branch deletion failed")
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Branch deleted successfully",
		"branches":     len(res.Branches),
		"transactions": len(res.Transactions),
	})
}
