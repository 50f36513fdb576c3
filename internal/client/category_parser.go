package client

import (
	"fmt"
	"strconv"
	"strings"

	"marketplace/catalog/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// categoryPageParser reads the storefront's nested category list:
//
//	<ul class="category-tree">
//	  <li data-id="electronics" data-status="active" data-sort="0"
//	      data-products="12" data-sellers="3" data-featured="true">
//	    <span class="name" lang="en">Electronics</span>
//	    <p class="description" lang="en">...</p>
//	    <ul> ...children... </ul>
//	  </li>
//	</ul>
type categoryPageParser struct{}

func newCategoryPageParser() *categoryPageParser {
	return &categoryPageParser{}
}

func (p *categoryPageParser) ParseCategoryPage(html string) ([]*domain.CategoryNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	list := doc.Find("ul.category-tree").First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("no category tree found on page")
	}

	forest, err := p.parseList(list, "")
	if err != nil {
		return nil, err
	}

	log.Debugf("Parsed %d root categories", len(forest))
	return forest, nil
}

func (p *categoryPageParser) parseList(list *goquery.Selection, parentID string) ([]*domain.CategoryNode, error) {
	var (
		nodes    []*domain.CategoryNode
		parseErr error
	)

	list.ChildrenFiltered("li").EachWithBreak(func(i int, li *goquery.Selection) bool {
		node, err := p.parseItem(li, parentID)
		if err != nil {
			parseErr = err
			return false
		}
		nodes = append(nodes, node)
		return true
	})

	return nodes, parseErr
}

func (p *categoryPageParser) parseItem(li *goquery.Selection, parentID string) (*domain.CategoryNode, error) {
	id := strings.TrimSpace(li.AttrOr("data-id", ""))
	if id == "" {
		return nil, fmt.Errorf("category item without data-id under %q", parentID)
	}

	node := &domain.CategoryNode{
		ID:          id,
		ParentID:    parentID,
		Name:        localized(li.ChildrenFiltered("span.name")),
		Description: localized(li.ChildrenFiltered("p.description")),
		Status:      domain.Status(li.AttrOr("data-status", string(domain.StatusActive))),
		SortOrder:   intAttr(li, "data-sort"),
		Metrics: domain.Metrics{
			ProductCount: intAttr(li, "data-products"),
			SellerCount:  intAttr(li, "data-sellers"),
		},
		Featured: li.AttrOr("data-featured", "") == "true",
	}
	if len(node.Description) == 0 {
		node.Description = nil
	}

	sub := li.ChildrenFiltered("ul")
	if sub.Length() > 0 {
		children, err := p.parseList(sub.First(), id)
		if err != nil {
			return nil, err
		}
		node.Children = children
	}

	return node, nil
}

func localized(sel *goquery.Selection) domain.LocalizedText {
	text := make(domain.LocalizedText)
	sel.Each(func(i int, s *goquery.Selection) {
		lang := s.AttrOr("lang", "en")
		text[lang] = strings.TrimSpace(s.Text())
	})
	return text
}

func intAttr(sel *goquery.Selection, name string) int {
	v, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Warnf("Ignoring non-numeric %s=%q", name, v)
		return 0
	}
	return n
}
