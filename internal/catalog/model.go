package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

// Dimensions — габариты полотна в миллиметрах.
type Dimensions struct {
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
	Depth  *int `json:"depth,omitempty"`
}

type Materials struct {
	Frame      *string `json:"frame,omitempty"`
	Coating    *string `json:"coating,omitempty"`
	Insulation *string `json:"insulation,omitempty"`
}

const (
	OpeningLeft      = "left"
	OpeningRight     = "right"
	OpeningUniversal = "universal"
)

type Installation struct {
	Opening *string `json:"opening,omitempty"`
	Type    *string `json:"type,omitempty"`
}

type Brand struct {
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
	URL  string `json:"url,omitempty"`
}

type Rating struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

type Sale struct {
	EndDate           string `json:"endDate"`
	RemainingQuantity int    `json:"remainingQuantity"`
}

// Door — позиция каталога. ExternalId присваивается при ингестии и служит
// естественным ключом для дедупликации и зеркала в Redis.
type Door struct {
	ID             uuid.UUID         `json:"id"`
	ExternalID     string            `json:"external_id"`
	Title          string            `json:"title"`
	Price          int               `json:"price"`
	OldPrice       *int              `json:"old_price,omitempty"`
	PriceUnit      *string           `json:"price_unit,omitempty"`
	Category       string            `json:"category"`
	ImageURLs      []string          `json:"image_urls"`
	ThumbnailURLs  []string          `json:"thumbnail_urls,omitempty"`
	InStock        bool              `json:"in_stock"`
	Description    string            `json:"description,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	URL            string            `json:"url"`
	Views          int               `json:"views"`

	Dimensions   *Dimensions   `json:"dimensions,omitempty"`
	Materials    *Materials    `json:"materials,omitempty"`
	Installation *Installation `json:"installation,omitempty"`
	Brand        *Brand        `json:"brand,omitempty"`
	Rating       *Rating       `json:"rating,omitempty"`
	Sale         *Sale         `json:"sale,omitempty"`

	Equipment      []string `json:"equipment,omitempty"`
	Features       []string `json:"features,omitempty"`
	Sizes          []string `json:"sizes,omitempty"`
	Manufacturer   *string  `json:"manufacturer,omitempty"`
	Warranty       *string  `json:"warranty,omitempty"`
	Country        *string  `json:"country,omitempty"`
	LockCount      *int     `json:"lock_count,omitempty"`
	MetalThickness *float64 `json:"metal_thickness,omitempty"`
	DoorThickness  *int     `json:"door_thickness,omitempty"`
	ExteriorFinish *string  `json:"exterior_finish,omitempty"`
	InteriorFinish *string  `json:"interior_finish,omitempty"`
	ExteriorColor  *string  `json:"exterior_color,omitempty"`
	InteriorColor  *string  `json:"interior_color,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate проверяет обязательные перед сохранением поля. Карточки без
// изображений в каталог не попадают.
func (d *Door) Validate() error {
	switch {
	case d.Title == "":
		return ErrMissingTitle
	case d.Price <= 0:
		return ErrMissingPrice
	case d.Category == "":
		return ErrMissingCategory
	case d.URL == "":
		return ErrMissingURL
	case len(d.ImageURLs) == 0:
		return ErrNoImages
	}
	return nil
}

// MirrorEntry — подмножество полей двери, сериализуемое в зеркало Redis
// под ключом door:<externalId>.
type MirrorEntry struct {
	Title          string            `json:"title"`
	Price          int               `json:"price"`
	OldPrice       *int              `json:"oldPrice,omitempty"`
	Category       string            `json:"category"`
	URL            string            `json:"url"`
	InStock        bool              `json:"inStock"`
	Description    string            `json:"description,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	ImageURLs      []string          `json:"imageUrls"`
}

func (d *Door) MirrorEntry() MirrorEntry {
	return MirrorEntry{
		Title:          d.Title,
		Price:          d.Price,
		OldPrice:       d.OldPrice,
		Category:       d.Category,
		URL:            d.URL,
		InStock:        d.InStock,
		Description:    d.Description,
		Specifications: d.Specifications,
		ImageURLs:      d.ImageURLs,
	}
}
