package domain

import "time"

const (
	ImportReceived  = "received"
	ImportStreaming = "streaming"
	ImportCompleted = "completed"
	ImportFailed    = "failed"
)

// ImportJob tracks one bulk upload from acknowledgement to completion.
type ImportJob struct {
	ID         int64      `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Filename   string     `gorm:"size:255" json:"filename"`
	Status     string     `gorm:"size:16;index" json:"status"`
	TotalRows  int        `json:"totalRows"`
	Accepted   int        `json:"accepted"`
	Rejected   int        `json:"rejected"`
	Message    string     `gorm:"size:1024" json:"message,omitempty"`
	CreatedBy  int64      `gorm:"index" json:"createdBy,string"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// TableName Specify table name
func (ImportJob) TableName() string {
	return "import_jobs"
}

func (j *ImportJob) Done() bool {
	return j.Status == ImportCompleted || j.Status == ImportFailed
}

// ImportRow is one decoded CSV line, kept as raw text until validated.
type ImportRow struct {
	Name        string `csv:"name"`
	CategoryID  string `csv:"categoryId"`
	Price       string `csv:"price"`
	Description string `csv:"description"`
	ImageURL    string `csv:"imageUrl"`
}
