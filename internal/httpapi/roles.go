package httpapi

import (
	"net/http"

	"github.com/MrEthical07/goAccess/permission"
	"github.com/go-chi/chi/v5"
)

type createRoleRequest struct {
	Code        string `json:"code" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=256"`
}

type updateRoleRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=64"`
	Description *string `json:"description" validate:"omitempty,max=256"`
}

type assignPermissionsRequest struct {
	Codes []string `json:"codes" validate:"dive,required"`
}

type userCountRequest struct {
	Count *int `json:"count" validate:"required,min=0"`
}

func (s *Server) listRoles(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.console.Roles())
}

func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.console.Role(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, role)
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	role, err := s.console.CreateRole(r.Context(), permission.RoleFields{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, role)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	role, err := s.console.UpdateRole(r.Context(), chi.URLParam(r, "id"), permission.RolePatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, role)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := s.console.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assignPermissions(w http.ResponseWriter, r *http.Request) {
	var req assignPermissionsRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.console.AssignPermissions(r.Context(), id, req.Codes); err != nil {
		s.writeError(w, err)
		return
	}
	s.roleResponse(w, id)
}

func (s *Server) setUserCount(w http.ResponseWriter, r *http.Request) {
	var req userCountRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.console.SetRoleUserCount(r.Context(), id, *req.Count); err != nil {
		s.writeError(w, err)
		return
	}
	s.roleResponse(w, id)
}

func (s *Server) roleResponse(w http.ResponseWriter, id string) {
	role, err := s.console.Role(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, role)
}
