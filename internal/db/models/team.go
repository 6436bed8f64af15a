package models

import "time"

// Team is a tenant. Every membership, post, workflow and custom role belongs to one team.
type Team struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Team model.
func (Team) TableName() string {
	return "teams"
}
