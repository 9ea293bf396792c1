package httpapi

import "time"

// taskDefinitionDTO is the wire representation of model.TaskDefinition
// (spec §6).
type taskDefinitionDTO struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Version       int64     `json:"version"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	Command       []string  `json:"command,omitempty"`
	Args          string    `json:"args,omitempty"`
	Env           string    `json:"env,omitempty"`
	MemoryLimitMB *int      `json:"memory_limit_mb,omitempty"`
	CPUShares     *int      `json:"cpu_shares,omitempty"`
	Enabled       bool      `json:"enabled"`
	IsLatest      bool      `json:"is_latest"`
	CreatedAt     time.Time `json:"created_at"`
}

type createTaskDefinitionRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	Command       []string `json:"command,omitempty"`
	Args          string   `json:"args,omitempty"`
	Env           string   `json:"env,omitempty"`
	MemoryLimitMB *int     `json:"memory_limit,omitempty"`
	CPUShares     *int     `json:"cpu_limit,omitempty"`
}

type patchTaskDefinitionRequest struct {
	Description *string  `json:"description,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Command     []string `json:"command,omitempty"`
	Args        *string  `json:"args,omitempty"`
	Env         *string  `json:"env,omitempty"`
	MemoryLimit **int    `json:"memory_limit,omitempty"`
	CPULimit    **int    `json:"cpu_limit,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`
}

type listTaskDefinitionsResponse struct {
	TaskDefinitions []taskDefinitionDTO `json:"task_definitions"`
	TotalCount      int64               `json:"total_count"`
}

// jobDTO is the wire representation of model.Job (spec §6).
type jobDTO struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	TaskDefinitionID int64      `json:"task_definition_id"`
	Status           string     `json:"status"`
	SubmitedAt       time.Time  `json:"submited_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	ContainerType    string     `json:"container_type"`
	ContainerID      *string    `json:"container_id,omitempty"`
	ExitCode         *int       `json:"exit_code,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	LogExpired       bool       `json:"log_expired"`
	CreatedAt        time.Time  `json:"created_at"`
}

type submitJobRequest struct {
	TaskDefinitionID int64  `json:"task_definition_id"`
	JobName          string `json:"job_name"`
	LogExpireAfter   *int   `json:"log_expire_after,omitempty"`
}

type submitJobResponse struct {
	JobID int64 `json:"job_id"`
}

type stopJobRequest struct {
	JobID int64 `json:"job_id"`
}

type listJobsResponse struct {
	Jobs       []jobDTO `json:"jobs"`
	TotalCount int64    `json:"total_count"`
}

type jobLogLineDTO struct {
	Index   int       `json:"index"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

type listJobLogsResponse struct {
	Logs []jobLogLineDTO `json:"logs"`
}

// scheduleDTO is the wire representation of model.Schedule (spec §6).
type scheduleDTO struct {
	ID                    int64      `json:"id"`
	Name                  string     `json:"name"`
	JobName               string     `json:"job_name"`
	CronExpression        string     `json:"cron_expression"`
	TaskDefinitionID      int64      `json:"task_definition_id"`
	Command               string     `json:"command,omitempty"`
	Timezone              string     `json:"timezone"`
	TimezoneOffsetMinutes int        `json:"timezone_offset"`
	Enabled               bool       `json:"enabled"`
	CreatedAt             time.Time  `json:"created_at"`
	LastTriggeredAt       *time.Time `json:"last_triggered_at,omitempty"`
}

type createScheduleRequest struct {
	Name                  string `json:"name"`
	JobName               string `json:"job_name"`
	CronExpression        string `json:"cron_expression"`
	TaskDefinitionID      int64  `json:"task_definition_id"`
	Command               string `json:"command,omitempty"`
	Timezone              string `json:"timezone,omitempty"`
	TimezoneOffsetMinutes int    `json:"timezone_offset,omitempty"`
	Enabled               bool   `json:"enabled"`
}

type patchScheduleRequest struct {
	Name                  *string `json:"name,omitempty"`
	JobName               *string `json:"job_name,omitempty"`
	CronExpression        *string `json:"cron_expression,omitempty"`
	TaskDefinitionID      *int64  `json:"task_definition_id,omitempty"`
	Command               *string `json:"command,omitempty"`
	Timezone              *string `json:"timezone,omitempty"`
	TimezoneOffsetMinutes *int    `json:"timezone_offset,omitempty"`
	Enabled               *bool   `json:"enabled,omitempty"`
}

type listSchedulesResponse struct {
	Schedules []scheduleDTO `json:"schedules"`
}
