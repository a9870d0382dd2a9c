// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package pagination computes previous/next links and a compact, windowed
// list of page numbers for paginated views.
package pagination

import (
	"strconv"
	"strings"
)

// DefaultRadius is how many neighbours on each side of the current page are
// always listed.
const DefaultRadius = 2

// Item kinds.
const (
	TypeNumber   = "number"
	TypeEllipsis = "ellipsis"
)

// Link is a previous/next link.
type Link struct {
	Href string `json:"href"`
}

// Item is one entry of the page list: either a page number or an ellipsis
// marker standing for a collapsed run of pages.
type Item struct {
	Type     string `json:"type"`
	Number   int    `json:"number,omitempty"`
	Href     string `json:"href"`
	Current  bool   `json:"current,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
}

// State is the full pagination model for one page of a view.
type State struct {
	Previous *Link `json:"previous,omitempty"`
	Next     *Link `json:"next,omitempty"`
	Items    []Item `json:"items"`
}

// HrefFunc builds the link for a page number.
type HrefFunc func(page int) string

// Paginator computes pagination states with a fixed window radius.
type Paginator struct {
	Radius int
}

// Compute returns the pagination state using DefaultRadius.
func Compute(totalPages, currentPage int, href HrefFunc) State {
	return Paginator{Radius: DefaultRadius}.Compute(totalPages, currentPage, href)
}

// Compute returns the pagination state for currentPage of totalPages.
// A totalPages of zero yields no items and no links.
func (p Paginator) Compute(totalPages, currentPage int, href HrefFunc) State {
	st := State{Items: []Item{}}
	if totalPages <= 0 {
		return st
	}

	if currentPage > 1 {
		st.Previous = &Link{Href: href(currentPage - 1)}
	}
	if currentPage < totalPages {
		st.Next = &Link{Href: href(currentPage + 1)}
	}

	for _, n := range p.pages(totalPages, currentPage) {
		if n == 0 {
			st.Items = append(st.Items, Item{Type: TypeEllipsis, Href: "#", Ellipsis: true})
			continue
		}
		st.Items = append(st.Items, Item{
			Type:    TypeNumber,
			Number:  n,
			Href:    href(n),
			Current: n == currentPage,
		})
	}
	return st
}

// pages returns the visible page numbers in order, with 0 marking an
// ellipsis. Gaps of a single page show that page instead of an ellipsis.
func (p Paginator) pages(totalPages, currentPage int) []int {
	radius := p.Radius
	if radius < 0 {
		radius = 0
	}

	visible := func(n int) bool {
		return n == 1 || n == totalPages || (n >= currentPage-radius && n <= currentPage+radius)
	}

	var out []int
	last := 0
	for n := 1; n <= totalPages; n++ {
		if !visible(n) {
			continue
		}
		switch gap := n - last - 1; {
		case gap == 1:
			out = append(out, n-1)
		case gap >= 2:
			out = append(out, 0)
		}
		out = append(out, n)
		last = n
	}
	return out
}

// TotalPages returns the number of pages needed for count items.
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ParsePage converts a request page parameter into a page number. Empty or
// invalid input, and values below 1, yield 1.
func ParsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset returns the zero-based item offset of page for the given size.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
