package models

import "time"

// PostStatus is the publication state of a post.
type PostStatus string

// Post states. Scheduling and publishing happen outside this service.
const (
	PostDraft           PostStatus = "DRAFT"
	PostPendingApproval PostStatus = "PENDING_APPROVAL"
	PostApproved        PostStatus = "APPROVED"
	PostScheduled       PostStatus = "SCHEDULED"
	PostPublished       PostStatus = "PUBLISHED"
)

// Post is a piece of content owned by a team.
type Post struct {
	ID        uint64     `gorm:"primaryKey" json:"id"`
	TeamID    uint64     `gorm:"not null;index" json:"teamId"`
	AuthorID  uint64     `gorm:"not null" json:"authorId"`
	Content   string     `gorm:"type:text" json:"content"`
	Status    PostStatus `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TableName specifies the database table name for the Post model.
func (Post) TableName() string {
	return "posts"
}
