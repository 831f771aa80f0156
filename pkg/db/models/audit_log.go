package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records an admin mutation.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    *uuid.UUID     `gorm:"column:actor_id;type:uuid"`
	Action     string         `gorm:"column:action;not null"`
	EntityType string         `gorm:"column:entity_type;not null"`
	EntityID   *uuid.UUID     `gorm:"column:entity_id;type:uuid"`
	IP         *string        `gorm:"column:ip"`
	UserAgent  *string        `gorm:"column:user_agent"`
	Changes    map[string]any `gorm:"column:changes;type:jsonb;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
