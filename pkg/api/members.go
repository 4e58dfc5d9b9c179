package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/service"
)

// memberRequest is the writable part of a member. DOB accepts a calendar
// date (2006-01-02) or an RFC 3339 timestamp.
type memberRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	DOB           string `json:"dob"`
	Gender        string `json:"gender"`
	ContactNumber string `json:"contactNumber"`
	Address       string `json:"address"`
	NativePlace   string `json:"nativePlace"`
	NationalID    string `json:"nationalId"`
	Notes         string `json:"notes"`
	ImageURL      string `json:"imageUrl"`
}

func (m memberRequest) toMember() (family.Member, error) {
	gender, err := family.ParseGender(m.Gender)
	if err != nil {
		return family.Member{}, err
	}
	out := family.Member{
		FirstName:     strings.TrimSpace(m.FirstName),
		LastName:      strings.TrimSpace(m.LastName),
		Gender:        gender,
		ContactNumber: m.ContactNumber,
		Address:       m.Address,
		NativePlace:   m.NativePlace,
		NationalID:    m.NationalID,
		Notes:         m.Notes,
		ImageURL:      m.ImageURL,
	}
	if dob := strings.TrimSpace(m.DOB); dob != "" {
		t, err := parseDate(dob)
		if err != nil {
			return family.Member{}, err
		}
		out.DOB = &t
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New(errors.ErrCodeInvalidRequest, "invalid dob %q", s)
	}
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), nil
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := s.svc.ListMembers(r.Context(), service.ListParams{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := s.svc.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) getFamily(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := s.svc.Family(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) createMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := req.toMember()
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.svc.CreateMember(r.Context(), m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req memberRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := req.toMember()
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.svc.UpdateMember(r.Context(), id, m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.DeleteMember(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Member deleted"})
}
