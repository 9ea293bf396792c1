package model

import "time"

// Schedule is a persisted cron rule that periodically submits jobs
// (spec §3). The parsed cron expression is not stored here — it lives only
// in the scheduler's in-memory working set (spec §4.7).
type Schedule struct {
	ID                    int64
	Name                  string
	JobName               string
	CronExpression        string
	TaskDefinitionID      int64
	Command               string // optional override, comma-joined tokens
	Timezone              string
	TimezoneOffsetMinutes int
	Enabled               bool
	CreatedAt             time.Time
	LastTriggeredAt       *time.Time
}
