package order

import (
	"time"

	"github.com/dveridom/backend/internal/catalog"
	"github.com/gofrs/uuid"
)

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

func (os OrderStatus) String() string {
	return string(os)
}

func (os OrderStatus) Valid() bool {
	switch os {
	case StatusNew, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order хранит снимок позиций каталога на момент оформления, а не живые
// ссылки: последующие изменения цен на заказы не влияют.
type Order struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Phone     string         `json:"phone"`
	Address   string         `json:"address"`
	Comment   string         `json:"comment,omitempty"`
	Items     []catalog.Door `json:"items"`
	Total     float64        `json:"total"`
	Status    OrderStatus    `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
