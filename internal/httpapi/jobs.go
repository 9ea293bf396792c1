package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/service"
)

// jobHandlers implements the /jobs surface of spec §6, a thin mapping onto
// service.JobService.
type jobHandlers struct {
	jobs   *service.JobService
	logger *slog.Logger
}

func toJobDTO(j *model.Job) jobDTO {
	return jobDTO{
		ID: j.ID, Name: j.Name, TaskDefinitionID: j.TaskDefinitionID, Status: string(j.Status),
		SubmitedAt: j.SubmitedAt, StartedAt: j.StartedAt, FinishedAt: j.FinishedAt,
		ContainerType: string(j.ContainerType), ContainerID: j.ContainerID,
		ExitCode: j.ExitCode, ErrorMessage: j.ErrorMessage,
		LogExpired: j.LogExpired, CreatedAt: j.CreatedAt,
	}
}

func (h *jobHandlers) submit(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_BODY", Message: err.Error()})
		return
	}

	var logExpireAfter *time.Duration
	if req.LogExpireAfter != nil {
		d := time.Duration(*req.LogExpireAfter) * time.Second
		logExpireAfter = &d
	}

	id, err := h.jobs.SubmitJob(r.Context(), req.TaskDefinitionID, req.JobName, logExpireAfter)
	if err != nil {
		writeSubmitJobError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, submitJobResponse{JobID: id})
}

func (h *jobHandlers) stop(w http.ResponseWriter, r *http.Request) {
	var req stopJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_BODY", Message: err.Error()})
		return
	}
	if err := h.jobs.StopJob(r.Context(), req.JobID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *jobHandlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.JobFilter{
		PageNumber: queryInt(q, "page_number", 1),
		PageSize:   queryInt(q, "page_size", 50),
	}
	if v := q.Get("job_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.JobID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		status := model.JobStatus(v)
		filter.Status = &status
	}
	if v := q.Get("contains_name"); v != "" {
		filter.ContainsName = &v
	}

	jobs, total, err := h.jobs.ListJobs(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	dtos := make([]jobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = toJobDTO(j)
	}
	writeJSON(w, http.StatusOK, listJobsResponse{Jobs: dtos, TotalCount: total})
}

func (h *jobHandlers) logs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	q := r.URL.Query()
	offset := queryInt(q, "offset", 0)
	limit := queryInt(q, "limit", 100)

	lines, err := h.jobs.ListJobLogs(r.Context(), id, offset, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	dtos := make([]jobLogLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = jobLogLineDTO{Index: l.Index, Time: l.Time, Message: l.Message}
	}
	writeJSON(w, http.StatusOK, listJobLogsResponse{Logs: dtos})
}
