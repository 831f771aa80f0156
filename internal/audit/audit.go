package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/internal/repo"
	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExpire = "expire"
)

// Actor identifies who performed a mutation and from where.
type Actor struct {
	ID        uuid.UUID
	IP        string
	UserAgent string
}

// Entry is the payload recorded for a single admin mutation.
type Entry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Changes    map[string]any
}

// Sink receives audit entries. Callers treat failures as non-fatal.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

type gormSink struct {
	base repo.Base
}

// NewGormSink writes entries to audit_logs.
func NewGormSink(db *gorm.DB) Sink {
	return &gormSink{base: repo.NewBase(db)}
}

func (s *gormSink) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.Action) == "" || strings.TrimSpace(entry.EntityType) == "" {
		return fmt.Errorf("audit entry requires action and entity type")
	}
	row := models.AuditLog{
		ActorID:    optionalUUID(entry.Actor.ID),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   optionalUUID(entry.EntityID),
		IP:         optionalString(entry.Actor.IP),
		UserAgent:  optionalString(entry.Actor.UserAgent),
		Changes:    entry.Changes,
	}
	return s.base.DB(ctx).Create(&row).Error
}

func optionalUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
