// Package model defines the persisted entities shared by the repository,
// service, and background-loop layers: task definitions, jobs, and
// schedules.
package model

import "time"

// JobStatus is the job lifecycle state, per spec §3.
type JobStatus string

const (
	JobPending  JobStatus = "Pending"
	JobStarting JobStatus = "Starting"
	JobRunning  JobStatus = "Running"
	JobFinished JobStatus = "Finished"
	JobFailed   JobStatus = "Failed"
)

// Terminal reports whether s is a terminal job status. Terminal states never
// transition (spec §3 invariant).
func (s JobStatus) Terminal() bool {
	return s == JobFinished || s == JobFailed
}

// jobTransitions enumerates the allowed next states for each job status.
// Checked by the job repository's update path so a job never regresses or
// leaves a terminal state (spec §9 "State machine").
var jobTransitions = map[JobStatus]map[JobStatus]bool{
	JobPending:  {JobStarting: true, JobFailed: true},
	JobStarting: {JobRunning: true, JobFailed: true},
	JobRunning:  {JobFinished: true, JobFailed: true},
	JobFinished: {},
	JobFailed:   {},
}

// CanTransition reports whether a job may move from "from" to "to".
// Transitioning to the same status is always allowed (idempotent patch).
func CanTransition(from, to JobStatus) bool {
	if from == to {
		return true
	}
	return jobTransitions[from][to]
}

// ContainerType identifies the runtime that launched a job's container.
// Docker is the default and, presently, only supported kind (spec §1
// Non-goals: "arbitrary container-runtime support beyond the contract").
type ContainerType string

const (
	ContainerTypeDocker ContainerType = "docker"
)

// Job is one execution attempt of a TaskDefinition (spec §3).
type Job struct {
	ID                int64
	Name              string
	TaskDefinitionID  int64
	Status            JobStatus
	SubmitedAt        time.Time
	StartedAt         *time.Time
	FinishedAt        *time.Time
	ContainerType     ContainerType
	ContainerID       *string
	ExitCode          *int
	ErrorMessage      *string
	LogExpireAfter    *time.Duration
	LogExpired        bool
	CreatedAt         time.Time
}
