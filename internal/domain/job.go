package domain

import "time"

// Job is scheduled work for a client. Once it has visits its status is
// derived from theirs.
type Job struct {
	ID          string     `json:"id"`
	JobNumber   string     `json:"job_number"`
	ClientID    string     `json:"client_id"`
	QuoteID     *string    `json:"quote_id,omitempty"`
	RequestID   *string    `json:"request_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Status      JobStatus  `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (j *Job) EntityKind() Kind { return KindJob }
func (j *Job) EntityID() string { return j.ID }

// JobDetail is a Job with its visits and notes.
type JobDetail struct {
	Job
	Visits []Visit `json:"visits"`
	Notes  []Note  `json:"notes"`
}

type CreateJobInput struct {
	ClientID    string `json:"client_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

type JobPatch struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Status      *JobStatus `json:"status" validate:"omitempty,oneof=Unscheduled Scheduled InProgress Completed Cancelled"`
}

var JobTrackedFields = []string{"title", "description", "priority", "status"}

// Visit is one scheduled trip to perform a Job.
type Visit struct {
	ID                 string       `json:"id"`
	JobID              string       `json:"job_id"`
	Title              string       `json:"title,omitempty"`
	Status             VisitStatus  `json:"status"`
	ScheduleType       ScheduleType `json:"schedule_type"`
	ScheduledStart     *time.Time   `json:"scheduled_start,omitempty"`
	ScheduledEnd       *time.Time   `json:"scheduled_end,omitempty"`
	ArrivalWindowStart *time.Time   `json:"arrival_window_start,omitempty"`
	ArrivalWindowEnd   *time.Time   `json:"arrival_window_end,omitempty"`
	ActualStart        *time.Time   `json:"actual_start,omitempty"`
	ActualEnd          *time.Time   `json:"actual_end,omitempty"`
	TechnicianIDs      []string     `json:"technician_ids"`
	Instructions       string       `json:"instructions,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (v *Visit) EntityKind() Kind { return KindVisit }
func (v *Visit) EntityID() string { return v.ID }

type CreateVisitInput struct {
	JobID              string       `json:"job_id" validate:"required"`
	Title              string       `json:"title" validate:"max=200"`
	Status             VisitStatus  `json:"status" validate:"omitempty,oneof=Scheduled InProgress Completed Cancelled"`
	ScheduleType       ScheduleType `json:"schedule_type" validate:"omitempty,oneof=fixed window anytime"`
	ScheduledStart     *time.Time   `json:"scheduled_start"`
	ScheduledEnd       *time.Time   `json:"scheduled_end"`
	ArrivalWindowStart *time.Time   `json:"arrival_window_start"`
	ArrivalWindowEnd   *time.Time   `json:"arrival_window_end"`
	TechnicianIDs      []string     `json:"technician_ids" validate:"dive,required"`
	Instructions       string       `json:"instructions" validate:"max=5000"`
}

type VisitPatch struct {
	Title              *string       `json:"title" validate:"omitempty,max=200"`
	Status             *VisitStatus  `json:"status" validate:"omitempty,oneof=Scheduled InProgress Completed Cancelled"`
	ScheduleType       *ScheduleType `json:"schedule_type" validate:"omitempty,oneof=fixed window anytime"`
	ScheduledStart     *time.Time    `json:"scheduled_start"`
	ScheduledEnd       *time.Time    `json:"scheduled_end"`
	ArrivalWindowStart *time.Time    `json:"arrival_window_start"`
	ArrivalWindowEnd   *time.Time    `json:"arrival_window_end"`
	ActualStart        *time.Time    `json:"actual_start"`
	ActualEnd          *time.Time    `json:"actual_end"`
	TechnicianIDs      *[]string     `json:"technician_ids" validate:"omitempty,dive,required"`
	Instructions       *string       `json:"instructions" validate:"omitempty,max=5000"`
}

var VisitTrackedFields = []string{
	"title", "status", "schedule_type",
	"scheduled_start", "scheduled_end", "arrival_window_start", "arrival_window_end",
	"actual_start", "actual_end", "technician_ids", "instructions",
}
