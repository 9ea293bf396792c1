package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
)

// taskDefinitionHandlers implements the /task-definitions surface of spec
// §6. Task definitions are not a core component (spec §1 scopes the HTTP
// surface itself out of "the core"), so handlers here talk to the
// repository directly rather than through an intermediate service.
type taskDefinitionHandlers struct {
	repo   repo.TaskDefinitionRepository
	logger *slog.Logger
}

func toTaskDefinitionDTO(t *model.TaskDefinition) taskDefinitionDTO {
	return taskDefinitionDTO{
		ID: t.ID, Name: t.Name, Version: t.Version, Description: t.Description,
		Image: t.Image, Command: t.Command, Args: t.Args, Env: t.Env,
		MemoryLimitMB: t.MemoryLimitMB, CPUShares: t.CPUShares,
		Enabled: t.Enabled, IsLatest: t.IsLatest, CreatedAt: t.CreatedAt,
	}
}

func (h *taskDefinitionHandlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.TaskDefinitionFilter{
		PageNumber:   queryInt(q, "page_number", 1),
		PageSize:     queryInt(q, "page_size", 50),
		IsLatestOnly: q.Get("is_latest_only") == "true",
	}
	if v := q.Get("task_definition_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.TaskDefinitionID = &id
		}
	}
	if v := q.Get("name"); v != "" {
		filter.Name = &v
	}
	if v := q.Get("contains_name"); v != "" {
		filter.ContainsName = &v
	}

	tasks, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	dtos := make([]taskDefinitionDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = toTaskDefinitionDTO(t)
	}
	writeJSON(w, http.StatusOK, listTaskDefinitionsResponse{TaskDefinitions: dtos, TotalCount: total})
}

func (h *taskDefinitionHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createTaskDefinitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_BODY", Message: err.Error()})
		return
	}

	task := &model.TaskDefinition{
		Name: req.Name, Description: req.Description, Image: req.Image,
		Command: req.Command, Args: req.Args, Env: req.Env,
		MemoryLimitMB: req.MemoryLimitMB, CPUShares: req.CPUShares,
		Enabled: true,
	}
	id, err := h.repo.Create(r.Context(), task)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *taskDefinitionHandlers) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	var req patchTaskDefinitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_BODY", Message: err.Error()})
		return
	}

	patch := repo.TaskDefinitionPatch{
		Description: req.Description, Image: req.Image, Args: req.Args, Env: req.Env,
		Enabled: req.Enabled,
	}
	if req.Command != nil {
		cmd := req.Command
		patch.Command = &cmd
	}
	if req.MemoryLimit != nil {
		patch.MemoryLimitMB = req.MemoryLimit
	}
	if req.CPULimit != nil {
		patch.CPUShares = req.CPULimit
	}

	if err := h.repo.Update(r.Context(), id, patch); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *taskDefinitionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
