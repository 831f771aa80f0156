package repo

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultChunkSize bounds the number of ids bound into a single IN clause.
const DefaultChunkSize = 500

// Base carries the connection shared by the gorm repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx; a nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to a transaction handle; a nil tx keeps the current connection.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// ChunkIDs dedupes ids, sorts them in the order Postgres sorts uuid columns and
// splits them into chunks of at most size. Zero ids are dropped.
func ChunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	if size <= 0 {
		size = DefaultChunkSize
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	slices.SortFunc(unique, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	var chunks [][]uuid.UUID
	for start := 0; start < len(unique); start += size {
		end := min(start+size, len(unique))
		chunks = append(chunks, unique[start:end])
	}
	return chunks
}
