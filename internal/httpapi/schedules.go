package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/service"
)

// scheduleHandlers implements the /schedules surface of spec §6, a thin
// mapping onto service.ScheduleService.
type scheduleHandlers struct {
	schedules *service.ScheduleService
	logger    *slog.Logger
}

func toScheduleDTO(s *model.Schedule) scheduleDTO {
	return scheduleDTO{
		ID: s.ID, Name: s.Name, JobName: s.JobName, CronExpression: s.CronExpression,
		TaskDefinitionID: s.TaskDefinitionID, Command: s.Command,
		Timezone: s.Timezone, TimezoneOffsetMinutes: s.TimezoneOffsetMinutes,
		Enabled: s.Enabled, CreatedAt: s.CreatedAt, LastTriggeredAt: s.LastTriggeredAt,
	}
}

func (h *scheduleHandlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.ScheduleFilter{}
	if v := q.Get("schedule_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.ScheduleID = &id
		}
	}
	if v := q.Get("name"); v != "" {
		filter.Name = &v
	}
	if v := q.Get("contains_name"); v != "" {
		filter.ContainsName = &v
	}
	if v := q.Get("enabled"); v != "" {
		enabled := v == "true"
		filter.Enabled = &enabled
	}

	scheds, err := h.schedules.ListSchedules(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	dtos := make([]scheduleDTO, len(scheds))
	for i, s := range scheds {
		dtos[i] = toScheduleDTO(s)
	}
	writeJSON(w, http.StatusOK, listSchedulesResponse{Schedules: dtos})
}

func (h *scheduleHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_BODY", Message: err.Error()})
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	sched := &model.Schedule{
		Name: req.Name, JobName: req.JobName, CronExpression: req.CronExpression,
		TaskDefinitionID: req.TaskDefinitionID, Command: req.Command,
		Timezone: timezone, TimezoneOffsetMinutes: req.TimezoneOffsetMinutes,
		Enabled: req.Enabled,
	}
	id, err := h.schedules.CreateSchedule(r.Context(), sched)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *scheduleHandlers) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	var req patchScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_BODY", Message: err.Error()})
		return
	}

	in := service.SchedulePatchInput{
		Name: req.Name, JobName: req.JobName, CronExpression: req.CronExpression,
		TaskDefinitionID: req.TaskDefinitionID, Command: req.Command,
		Timezone: req.Timezone, TimezoneOffsetMinutes: req.TimezoneOffsetMinutes,
		Enabled: req.Enabled,
	}
	if err := h.schedules.PatchSchedule(r.Context(), id, in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *scheduleHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	if err := h.schedules.DeleteSchedule(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
