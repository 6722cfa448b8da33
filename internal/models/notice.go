package models

import "time"

// NoticeAudience scopes who a notice is visible to.
type NoticeAudience string

const (
	AudienceAll        NoticeAudience = "ALL"
	AudienceStudents   NoticeAudience = "STUDENTS"
	AudienceProfessors NoticeAudience = "PROFESSORS"
	AudienceBranch     NoticeAudience = "BRANCH"
)

// Notice is a departmental announcement.
type Notice struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Body      string         `db:"body" json:"body"`
	Audience  NoticeAudience `db:"audience" json:"audience"`
	BranchID  *string        `db:"branch_id" json:"branch_id,omitempty"`
	CreatedBy string         `db:"created_by" json:"created_by"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
