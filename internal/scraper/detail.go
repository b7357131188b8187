package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dveridom/backend/internal/catalog"
)

// Detail - данные, которые даёт только страница товара: описание и
// таблица характеристик.
type Detail struct {
	Description    string
	Specifications map[string]string
}

// ParseDetail читает описание и таблицу характеристик со страницы товара.
// Ключи характеристик приводятся к нижнему регистру. Отсутствующие блоки
// не считаются ошибкой: у части товаров их просто нет.
func ParseDetail(doc *goquery.Document) Detail {
	d := Detail{
		Description:    strings.TrimSpace(doc.Find(".detail-text-wrap").First().Text()),
		Specifications: make(map[string]string),
	}

	doc.Find(".props_list tr").Each(func(_ int, row *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(row.Find(".char_name span").First().Text()))
		value := strings.TrimSpace(row.Find(".char_value span").First().Text())
		if name == "" || value == "" {
			return
		}
		d.Specifications[name] = value
	})
	return d
}

var (
	intRe   = regexp.MustCompile(`\d+`)
	floatRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// ApplySpecifications раскладывает сырые характеристики по типизированным
// полям двери. Ключи распознаются по подстрокам, нераспознанные остаются
// только в плоской таблице Specifications.
func ApplySpecifications(door *catalog.Door, specs map[string]string) {
	if len(specs) == 0 {
		return
	}
	if door.Specifications == nil {
		door.Specifications = make(map[string]string, len(specs))
	}

	for name, value := range specs {
		door.Specifications[name] = value
		classifySpec(door, strings.ToLower(name), value)
	}
}

func classifySpec(door *catalog.Door, key, value string) {
	switch {
	case strings.Contains(key, "толщина металла") || strings.Contains(key, "толщина стали"):
		if f, ok := parseSpecFloat(value); ok {
			door.MetalThickness = &f
		}
	case strings.Contains(key, "толщина двер") || strings.Contains(key, "толщина полотна"):
		if n, ok := parseSpecInt(value); ok {
			door.DoorThickness = &n
		}
	case strings.Contains(key, "ширина"):
		if n, ok := parseSpecInt(value); ok {
			ensureDimensions(door).Width = &n
		}
	case strings.Contains(key, "высота"):
		if n, ok := parseSpecInt(value); ok {
			ensureDimensions(door).Height = &n
		}
	case strings.Contains(key, "глубина"):
		if n, ok := parseSpecInt(value); ok {
			ensureDimensions(door).Depth = &n
		}
	case strings.Contains(key, "материал") && strings.Contains(key, "корпус"):
		v := value
		ensureMaterials(door).Frame = &v
	case strings.Contains(key, "покрытие"):
		v := value
		ensureMaterials(door).Coating = &v
	case strings.Contains(key, "утеплитель") || strings.Contains(key, "наполнитель"):
		v := value
		ensureMaterials(door).Insulation = &v
	case strings.Contains(key, "открывание"):
		opening := classifyOpening(value)
		ensureInstallation(door).Opening = &opening
	case strings.Contains(key, "замк"):
		if n, ok := parseSpecInt(value); ok {
			door.LockCount = &n
		}
	case strings.Contains(key, "гарантия"):
		v := value
		door.Warranty = &v
	case strings.Contains(key, "страна"):
		v := value
		door.Country = &v
	case strings.Contains(key, "производитель") || strings.Contains(key, "бренд"):
		v := value
		door.Manufacturer = &v
	case strings.Contains(key, "цвет"):
		v := value
		if strings.Contains(key, "внутр") {
			door.InteriorColor = &v
		} else {
			door.ExteriorColor = &v
		}
	case strings.Contains(key, "отделка"):
		v := value
		if strings.Contains(key, "внутр") {
			door.InteriorFinish = &v
		} else {
			door.ExteriorFinish = &v
		}
	case strings.Contains(key, "размер"):
		door.Sizes = appendSplit(door.Sizes, value)
	case strings.Contains(key, "комплектация"):
		door.Equipment = appendSplit(door.Equipment, value)
	}
}

// classifyOpening нормализует сторону открывания. Всё, что не похоже на
// левое или правое, считается универсальным.
func classifyOpening(value string) string {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, "лев"):
		return catalog.OpeningLeft
	case strings.Contains(v, "прав"):
		return catalog.OpeningRight
	default:
		return catalog.OpeningUniversal
	}
}

func parseSpecInt(value string) (int, bool) {
	m := intRe.FindString(value)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseSpecFloat(value string) (float64, bool) {
	m := floatRe.FindString(value)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func appendSplit(dst []string, value string) []string {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			dst = append(dst, part)
		}
	}
	return dst
}

func ensureDimensions(door *catalog.Door) *catalog.Dimensions {
	if door.Dimensions == nil {
		door.Dimensions = &catalog.Dimensions{}
	}
	return door.Dimensions
}

func ensureMaterials(door *catalog.Door) *catalog.Materials {
	if door.Materials == nil {
		door.Materials = &catalog.Materials{}
	}
	return door.Materials
}

func ensureInstallation(door *catalog.Door) *catalog.Installation {
	if door.Installation == nil {
		door.Installation = &catalog.Installation{}
	}
	return door.Installation
}
