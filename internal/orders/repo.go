package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/internal/repo"
)

// Repository reads the order data the discount engine consumes. It never writes.
type Repository struct {
	base      repo.Base
	chunkSize int
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db), chunkSize: repo.DefaultChunkSize}
}

// ListItemPrices returns every item of the given orders with the variant price, falling
// back to the product price, as its base price. Large id sets are queried in chunks; rows
// come back ordered by order then item within each chunk.
func (r *Repository) ListItemPrices(ctx context.Context, orderIDs []uuid.UUID) ([]ItemPrice, error) {
	rows := []ItemPrice{}
	for _, chunk := range repo.ChunkIDs(orderIDs, r.chunkSize) {
		var batch []ItemPrice
		err := r.base.DB(ctx).
			Table("order_items AS oi").
			Select(`oi.order_id AS order_id,
				oi.id AS order_item_id,
				oi.product_id AS product_id,
				oi.variant_id AS variant_id,
				oi.quantity AS quantity,
				oi.unit_price AS unit_price,
				oi.total_price AS total_price,
				COALESCE(pv.price, p.price) AS base_price`).
			Joins("LEFT JOIN products p ON p.id = oi.product_id").
			Joins("LEFT JOIN product_variants pv ON pv.id = oi.variant_id").
			Where("oi.order_id IN ?", chunk).
			Order("oi.order_id ASC").
			Order("oi.id ASC").
			Scan(&batch).Error
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}
