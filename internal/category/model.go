package category

import "time"

// Контролируемый набор категорий витрины. Парсер может писать в каталог
// имена категорий источника, но публичный список ограничен этим набором.
var AllowedNames = []string{"Премиум", "Стандарт", "Эконом"}

type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
