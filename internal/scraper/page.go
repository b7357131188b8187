package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/catalog"
)

// imagePlaceholder - заглушка лоадера, которую сайт подставляет вместо
// ещё не загруженных фотографий. Такие URL отбрасываем.
const imagePlaceholder = "double_ring.svg"

// cardStrategy - именованная пара селекторов для карточек товара.
// Стратегии пробуются по порядку, первая непустая выборка выигрывает,
// имя победившей стратегии попадает в лог.
type cardStrategy struct {
	name  string
	cards string
}

var cardStrategies = []cardStrategy{
	{name: "bitrix-full", cards: ".catalog_item_wrapp.catalog_item.item_wrap"},
	{name: "bitrix-wrapp", cards: ".catalog_item_wrapp"},
	{name: "generic-product-item", cards: ".product-item"},
	{name: "generic-catalog-item", cards: ".catalog-item"},
}

// PageParser извлекает карточки товаров, ссылки пагинации и подкатегории
// из HTML страницы каталога.
type PageParser struct {
	baseURL *url.URL
}

func NewPageParser(rawBaseURL string) (*PageParser, error) {
	u, err := url.Parse(rawBaseURL)
	if err != nil {
		return nil, err
	}
	return &PageParser{baseURL: u}, nil
}

// ParseListing разбирает страницу листинга в черновики дверей.
// Карточка без названия, цены или картинок пропускается целиком,
// остальные обрабатываются дальше.
func (p *PageParser) ParseListing(doc *goquery.Document, category string) []*catalog.Door {
	cards, strategy := p.findCards(doc)
	if cards == nil {
		log.Warn().Str("category", category).Msg("no product cards matched any selector strategy")
		return nil
	}
	log.Debug().
		Str("category", category).
		Str("strategy", strategy).
		Int("cards", cards.Length()).
		Msg("product cards located")

	doors := make([]*catalog.Door, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		door := p.parseCard(card, category)
		if door == nil {
			return
		}
		doors = append(doors, door)
	})
	return doors
}

func (p *PageParser) findCards(doc *goquery.Document) (*goquery.Selection, string) {
	for _, s := range cardStrategies {
		sel := doc.Find(s.cards)
		if sel.Length() > 0 {
			return sel, s.name
		}
	}
	return nil, ""
}

// parseCard возвращает nil, если карточку нельзя превратить в валидный
// черновик. Ошибки отдельных карточек не прерывают разбор страницы.
func (p *PageParser) parseCard(card *goquery.Selection, category string) *catalog.Door {
	title := strings.TrimSpace(card.Find(".item-title a span").First().Text())
	if title == "" {
		return nil
	}

	price, ok := parsePriceAttr(card.Find(".price.font-bold.font_mxs").First())
	if !ok || price <= 0 {
		log.Debug().Str("title", title).Msg("card skipped: no parseable price")
		return nil
	}

	images := p.collectImages(card)
	if len(images) == 0 {
		log.Debug().Str("title", title).Msg("card skipped: no usable images")
		return nil
	}

	unit := "₽"
	door := &catalog.Door{
		Title:     title,
		Price:     price,
		PriceUnit: &unit,
		Category:  category,
		ImageURLs: images,
	}

	if old, ok := parsePriceAttr(card.Find(".price.discount").First()); ok && old > 0 {
		door.OldPrice = &old
	}

	if href, exists := card.Find(".item-title a").First().Attr("href"); exists {
		door.URL = p.absoluteURL(href)
	}

	stock := card.Find(".item-stock .value").First()
	door.InStock = stock.Length() > 0 && strings.Contains(stock.Text(), "Есть в наличии")

	return door
}

// collectImages собирает картинки галереи, отбрасывая заглушки и
// дубликаты. Если галереи нет, пробует одиночную обёртку изображения.
func (p *PageParser) collectImages(card *goquery.Selection) []string {
	seen := make(map[string]struct{})
	var images []string

	add := func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("data-src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = img.Attr("src")
		}
		src = strings.TrimSpace(src)
		if src == "" || strings.Contains(src, imagePlaceholder) {
			return
		}
		abs := p.absoluteURL(src)
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		images = append(images, abs)
	}

	card.Find(".section-gallery-wrapper__item img.img-responsive").Each(add)
	if len(images) == 0 {
		card.Find(".image_wrapper_block img.img-responsive").Each(add)
	}
	return images
}

// NextPageURL возвращает абсолютный адрес следующей страницы пагинации
// или пустую строку, когда текущая страница последняя.
func (p *PageParser) NextPageURL(doc *goquery.Document) string {
	href, exists := doc.Find(`[data-entity="pagination"] .next a`).First().Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return ""
	}
	return p.absoluteURL(href)
}

// SubcategoryURLs находит ссылки на подкатегории внутри страницы
// категории. Подкатегорией считается ссылка вида
// <base path>/<category>/<slug>/ без query-параметров.
func (p *PageParser) SubcategoryURLs(doc *goquery.Document, category string) []string {
	prefix := strings.TrimSuffix(p.baseURL.Path, "/") + "/" + category + "/"
	root := p.absoluteURL(prefix)

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.Contains(href, "?") {
			return
		}
		if !strings.Contains(href, prefix) {
			return
		}
		// Ссылки из карточек товаров ведут на страницы товаров, а не на
		// подкатегории.
		if a.Closest(".catalog_item_wrapp, .product-item, .catalog-item").Length() > 0 {
			return
		}
		abs := p.absoluteURL(href)
		if abs == root {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links
}

// CategoryURL строит адрес корневой страницы категории.
func (p *PageParser) CategoryURL(category string) string {
	u := *p.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + category + "/"
	return u.String()
}

func (p *PageParser) absoluteURL(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.baseURL.ResolveReference(ref).String()
}

// parsePriceAttr читает цену из data-value, терпя пробелы-разделители и
// валютные хвосты в значении.
func parsePriceAttr(sel *goquery.Selection) (int, bool) {
	if sel.Length() == 0 {
		return 0, false
	}
	raw, ok := sel.Attr("data-value")
	if !ok {
		raw = sel.Text()
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0, false
	}
	price, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return price, true
}
