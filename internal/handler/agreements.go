package handler

import (
	"net/http"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/mirror"
	"github.com/aryan0dhankhar/coachsync/internal/security"
)

// SaveGoal handles PUT /api/goals
func (h *StateHandler) SaveGoal(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermManageAgreements)
	if !ok {
		return
	}
	var goal domain.Goal
	if !decode(w, r, &goal) {
		return
	}
	if !h.participant(w, p, m, goal.ParticipantID) {
		return
	}
	if owner, found := goalOwner(m.Snapshot(), goal.ID); found && !h.participant(w, p, m, owner) {
		return
	}
	saved, err := m.SaveGoal(r.Context(), goal)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteGoal handles DELETE /api/goals/{id}. Sub-goals go with it.
func (h *StateHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermManageAgreements)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if owner, found := goalOwner(m.Snapshot(), id); found && !h.participant(w, p, m, owner) {
		return
	}
	if err := m.DeleteGoal(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveRecurring handles PUT /api/recurring
func (h *StateHandler) SaveRecurring(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermManageAgreements)
	if !ok {
		return
	}
	var a domain.RecurringAgreement
	if !decode(w, r, &a) {
		return
	}
	if !h.participant(w, p, m, a.ParticipantID) {
		return
	}
	if owner, found := recurringOwner(m.Snapshot(), a.ID); found && !h.participant(w, p, m, owner) {
		return
	}
	saved, err := m.SaveRecurring(r.Context(), a)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteRecurring handles DELETE /api/recurring/{id}
func (h *StateHandler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermManageAgreements)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if owner, found := recurringOwner(m.Snapshot(), id); found && !h.participant(w, p, m, owner) {
		return
	}
	if err := m.DeleteRecurring(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DayRequest records one calendar day of a recurring agreement. Value is
// only used by result agreements; null clears the day. The day is always
// recorded for the agreement's own participant.
type DayRequest struct {
	ParticipantID string   `json:"participantId"`
	Month         string   `json:"month"`
	Day           int      `json:"day"`
	Value         *float64 `json:"value"`
}

// RecordDay handles POST /api/recurring/{id}/days
func (h *StateHandler) RecordDay(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermRecordProgress)
	if !ok {
		return
	}
	var req DayRequest
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	owner, found := recurringOwner(m.Snapshot(), id)
	if !found {
		writeError(w, h.logger, mirror.ErrNotFound)
		return
	}
	if !h.participant(w, p, m, owner) {
		return
	}
	req.ParticipantID = owner
	saved, err := m.RecordRecurringDay(r.Context(), id, req.ParticipantID, req.Month, req.Day, req.Value)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Summary handles GET /api/recurring/{id}/summary?month=YYYY-MM
func (h *StateHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermViewState)
	if !ok {
		return
	}
	month := r.URL.Query().Get("month")
	if month == "" {
		writeMessage(w, http.StatusBadRequest, "month is required")
		return
	}
	id := r.PathValue("id")
	if owner, found := recurringOwner(m.Snapshot(), id); found && !h.participant(w, p, m, owner) {
		return
	}
	writeJSON(w, http.StatusOK, m.Summary(id, month))
}

// AddReport handles POST /api/reports
func (h *StateHandler) AddReport(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermRecordProgress)
	if !ok {
		return
	}
	var report domain.Report
	if !decode(w, r, &report) {
		return
	}
	if !h.participant(w, p, m, report.ParticipantID) {
		return
	}
	if owner, found := goalOwner(m.Snapshot(), report.GoalID); found && !h.participant(w, p, m, owner) {
		return
	}
	saved, err := m.AddReport(r.Context(), report)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// AddNote handles POST /api/notes
func (h *StateHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermRecordProgress)
	if !ok {
		return
	}
	var note domain.Note
	if !decode(w, r, &note) {
		return
	}
	if !h.participant(w, p, m, note.UserID) {
		return
	}
	saved, err := m.AddNote(r.Context(), note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// SaveMeeting handles PUT /api/meetings
func (h *StateHandler) SaveMeeting(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermManageAgreements)
	if !ok {
		return
	}
	var mt domain.Meeting
	if !decode(w, r, &mt) {
		return
	}
	if !h.participant(w, p, m, mt.ParticipantID) {
		return
	}
	if owner, found := meetingOwner(m.Snapshot(), mt.ID); found && !h.participant(w, p, m, owner) {
		return
	}
	saved, err := m.SaveMeeting(r.Context(), mt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteMeeting handles DELETE /api/meetings/{id}
func (h *StateHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.session(w, r, security.PermManageAgreements)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if owner, found := meetingOwner(m.Snapshot(), id); found && !h.participant(w, p, m, owner) {
		return
	}
	if err := m.DeleteMeeting(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// The owner helpers return the participant of a stored record, so a write by
// id is checked against the record it replaces and not only the request.

func goalOwner(s mirror.State, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, g := range s.Goals {
		if g.ID == id {
			return g.ParticipantID, true
		}
	}
	return "", false
}

func recurringOwner(s mirror.State, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, a := range s.Recurring {
		if a.ID == id {
			return a.ParticipantID, true
		}
	}
	return "", false
}

func meetingOwner(s mirror.State, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, mt := range s.Meetings {
		if mt.ID == id {
			return mt.ParticipantID, true
		}
	}
	return "", false
}
