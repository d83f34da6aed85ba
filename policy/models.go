package policy

import (
	"time"

	"gorm.io/datatypes"
)

// Policy statuses.
const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusApproved  = "approved"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

var validStatuses = map[string]bool{
	StatusDraft:     true,
	StatusReview:    true,
	StatusApproved:  true,
	StatusPublished: true,
	StatusArchived:  true,
}

type Policy struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string    `gorm:"not null" json:"title"`
	Category       string    `gorm:"not null;index" json:"category"`
	TargetAudience string    `gorm:"not null" json:"target_audience"`
	Description    string    `json:"description"`
	Status         string    `gorm:"not null;default:draft" json:"status"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Policy) TableName() string { return "policies" }

// Content is one saved artifact of a policy (a result section, a brief, a prompt).
type Content struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PolicyID    int64          `gorm:"not null;index" json:"policy_id"`
	ContentType string         `gorm:"not null" json:"content_type"`
	ContentData datatypes.JSON `gorm:"not null" json:"content_data"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

func (Content) TableName() string { return "policy_contents" }

// Performance 每个政策最多一行，按 policy_id upsert。
type Performance struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PolicyID        int64          `gorm:"not null;uniqueIndex" json:"policy_id"`
	ViewCount       int64          `gorm:"default:0" json:"view_count"`
	EngagementScore float64        `gorm:"default:0" json:"engagement_score"`
	FeedbackData    datatypes.JSON `json:"feedback_data"`
	MetricsData     datatypes.JSON `json:"metrics_data"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (Performance) TableName() string { return "policy_performance" }

type Media struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PolicyID         int64          `gorm:"not null;index" json:"policy_id"`
	MediaType        string         `gorm:"not null" json:"media_type"`
	MediaURL         string         `json:"media_url,omitempty"`
	MediaData        []byte         `json:"-"`
	Prompt           string         `json:"prompt"`
	GenerationParams datatypes.JSON `json:"generation_params"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
}

func (Media) TableName() string { return "generated_media" }
