package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dveridom/backend/internal/catalog"
)

// Crawler обходит одну категорию: корневая страница, её подкатегории,
// пагинация внутри каждой и страница товара для каждой карточки.
// Запросы идут строго последовательно с паузой между ними, чтобы не
// нагружать сайт-источник.
type Crawler struct {
	fetcher *Fetcher
	parser  *PageParser
	delay   time.Duration
}

func NewCrawler(fetcher *Fetcher, parser *PageParser, delay time.Duration) *Crawler {
	return &Crawler{fetcher: fetcher, parser: parser, delay: delay}
}

// CrawlCategory возвращает все двери категории. Ошибка отдельной страницы
// или товара логируется и не прерывает обход, ошибкой всего вызова
// считается только недоступность корневой страницы или отмена контекста.
func (c *Crawler) CrawlCategory(ctx context.Context, category string) ([]*catalog.Door, error) {
	rootURL := c.parser.CategoryURL(category)

	rootDoc, err := c.fetcher.FetchDocument(ctx, rootURL)
	if err != nil {
		return nil, fmt.Errorf("crawler: category %s root page: %w", category, err)
	}

	pages := append([]string{rootURL}, c.parser.SubcategoryURLs(rootDoc, category)...)
	log.Info().
		Str("category", category).
		Int("subcategories", len(pages)-1).
		Msg("category crawl started")

	var doors []*catalog.Door
	for i, pageURL := range pages {
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return doors, err
			}
		}
		collected, err := c.crawlChain(ctx, pageURL, category)
		if err != nil {
			return doors, err
		}
		doors = append(doors, collected...)
	}

	log.Info().
		Str("category", category).
		Int("doors", len(doors)).
		Msg("category crawl finished")
	return doors, nil
}

// crawlChain идёт по цепочке пагинации начиная со startURL. Возврат
// ошибки означает отмену контекста, ошибки страниц гасятся на месте.
func (c *Crawler) crawlChain(ctx context.Context, startURL, category string) ([]*catalog.Door, error) {
	var doors []*catalog.Door
	pageURL := startURL

	for pageURL != "" {
		doc, err := c.fetcher.FetchDocument(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return doors, ctx.Err()
			}
			log.Error().Err(err).Str("url", pageURL).Msg("listing page fetch failed, chain aborted")
			return doors, nil
		}

		for _, door := range c.parser.ParseListing(doc, category) {
			if err := c.pause(ctx); err != nil {
				return doors, err
			}
			c.enrichFromDetailPage(ctx, door)
			doors = append(doors, door)
		}

		next := c.parser.NextPageURL(doc)
		if next == "" || next == pageURL {
			break
		}
		if err := c.pause(ctx); err != nil {
			return doors, err
		}
		pageURL = next
	}
	return doors, nil
}

// enrichFromDetailPage дотягивает описание и характеристики со страницы
// товара. Недоступная страница товара оставляет черновик как есть.
func (c *Crawler) enrichFromDetailPage(ctx context.Context, door *catalog.Door) {
	if door.URL == "" {
		return
	}
	doc, err := c.fetcher.FetchDocument(ctx, door.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", door.URL).Msg("detail page fetch failed")
		return
	}

	detail := ParseDetail(doc)
	if detail.Description != "" {
		door.Description = detail.Description
	}
	ApplySpecifications(door, detail.Specifications)
}

func (c *Crawler) pause(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
