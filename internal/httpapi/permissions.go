package httpapi

import (
	"net/http"

	"github.com/MrEthical07/goAccess/permission"
	"github.com/go-chi/chi/v5"
)

type createPermissionRequest struct {
	ParentID    string `json:"parentId"`
	Code        string `json:"code" validate:"required,max=128"`
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=256"`
	Kind        string `json:"kind" validate:"omitempty,oneof=menu button api"`
	Path        string `json:"path" validate:"max=256"`
	Icon        string `json:"icon" validate:"max=64"`
	SortOrder   int    `json:"sortOrder"`
	Enabled     *bool  `json:"enabled"`
}

type updatePermissionRequest struct {
	ParentID    *string `json:"parentId"`
	Code        *string `json:"code" validate:"omitempty,max=128"`
	Name        *string `json:"name" validate:"omitempty,max=64"`
	Description *string `json:"description" validate:"omitempty,max=256"`
	Kind        *string `json:"kind" validate:"omitempty,oneof=menu button api"`
	Path        *string `json:"path" validate:"omitempty,max=256"`
	Icon        *string `json:"icon" validate:"omitempty,max=64"`
	SortOrder   *int    `json:"sortOrder"`
	Enabled     *bool   `json:"enabled"`
}

func (s *Server) listPermissions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.console.Permissions())
}

func (s *Server) permissionTree(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.console.PermissionTree())
}

func (s *Server) permissionCodeTree(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.console.PermissionCodeTree())
}

func (s *Server) getPermission(w http.ResponseWriter, r *http.Request) {
	p, err := s.console.Permission(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) createPermission(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	p, err := s.console.CreatePermission(r.Context(), req.ParentID, permission.Fields{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Kind:        permission.Kind(req.Kind),
		Path:        req.Path,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		Enabled:     enabled,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updatePermission(w http.ResponseWriter, r *http.Request) {
	var req updatePermissionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	patch := permission.Patch{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Path:        req.Path,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		Enabled:     req.Enabled,
		ParentID:    req.ParentID,
	}
	if req.Kind != nil {
		k := permission.Kind(*req.Kind)
		patch.Kind = &k
	}
	p, err := s.console.UpdatePermission(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) removePermission(w http.ResponseWriter, r *http.Request) {
	removed, err := s.console.RemovePermission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]permission.Permission{"removed": removed})
}
