package http

import (
	"net/http"

	"budgetbook/internal/core"
)

type templateJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"itemCount"`
}

func (s *Server) templateToJSON(t core.Template) templateJSON {
	return templateJSON{ID: t.ID, Name: t.Name, ItemCount: s.templates.ItemCount(t)}
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	if err := s.templates.LoadTemplates(r.Context()); err != nil {
		writeServiceError(w, err, s.templates.ErrorMessage())
		return
	}
	tpls := s.templates.Templates()
	out := make([]templateJSON, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, s.templateToJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type saveTemplateRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	var req saveTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := s.templates.SaveTemplate(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		writeServiceError(w, err, s.templates.ErrorMessage())
		return
	}
	writeJSON(w, http.StatusCreated, s.templateToJSON(created))
}

type stageActionRequest struct {
	Action     string `json:"action"`
	TemplateID string `json:"templateId"`
}

func (s *Server) handleStageTemplateAction(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	var req stageActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.templates.RequestAction(req.Action, req.TemplateID); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"action":     req.Action,
		"templateId": req.TemplateID,
	})
}

func (s *Server) handleCancelTemplateAction(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	s.templates.CancelAction()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfirmTemplateAction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	if err := s.templates.ConfirmAction(r.Context()); err != nil {
		writeServiceError(w, err, s.templates.ErrorMessage())
		return
	}
	s.invalidateViews(userID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": s.templates.SuccessMessage(),
	})
}
