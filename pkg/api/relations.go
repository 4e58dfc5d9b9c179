package api

import (
	"net/http"
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

type edgeRequest struct {
	FromMemberID int64  `json:"fromMemberId"`
	ToMemberID   int64  `json:"toMemberId"`
	RelationCode string `json:"relationCode"`
}

type masterRequest struct {
	Code            string `json:"code"`
	Label           string `json:"label"`
	IsSpousal       bool   `json:"isSpousal"`
	IsParental      bool   `json:"isParental"`
	IsBidirectional bool   `json:"isBidirectional"`
	InverseCode     string `json:"inverseCode"`
}

func (m masterRequest) toMaster() family.RelationMaster {
	return family.RelationMaster{
		Code:            strings.ToUpper(strings.TrimSpace(m.Code)),
		Label:           strings.TrimSpace(m.Label),
		IsSpousal:       m.IsSpousal,
		IsParental:      m.IsParental,
		IsBidirectional: m.IsBidirectional,
		InverseCode:     strings.ToUpper(strings.TrimSpace(m.InverseCode)),
	}
}

func (s *Server) listEdges(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("memberId")
	if raw == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidRequest, "memberId is required"))
		return
	}
	id, err := parseID("memberId", raw)
	if err != nil {
		writeError(w, err)
		return
	}
	edges, err := s.svc.MemberEdges(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, edges)
}

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	e, err := s.svc.Link(r.Context(), req.FromMemberID, req.ToMemberID, strings.ToUpper(strings.TrimSpace(req.RelationCode)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.Unlink(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Relationship deleted"})
}

func (s *Server) listMasters(w http.ResponseWriter, r *http.Request) {
	masters, err := s.svc.Masters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if masters == nil {
		masters = []family.RelationMaster{}
	}
	writeJSON(w, http.StatusOK, masters)
}

func (s *Server) createMaster(w http.ResponseWriter, r *http.Request) {
	var req masterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.svc.CreateMaster(r.Context(), req.toMaster())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) updateMaster(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req masterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.svc.UpdateMaster(r.Context(), id, req.toMaster())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMaster(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.DeleteMaster(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Relation Master deleted"})
}
