package services

import (
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
)

// ResponseAssembler paginates ranked items and projects them for clients
type ResponseAssembler struct {
	now func() time.Time
}

// NewResponseAssembler creates an assembler
func NewResponseAssembler() *ResponseAssembler {
	return &ResponseAssembler{now: time.Now}
}

// Assemble builds one page. total is the full candidate count; a page past
// the end is empty rather than an error.
func (a *ResponseAssembler) Assemble(items []entities.SearchResultItem, page, perPage int, analysis entities.QueryAnalysis, started time.Time) *entities.SearchResponse {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage

	views := []entities.EventView{}
	if page <= totalPages {
		offset := (page - 1) * perPage
		end := min(offset+perPage, total)
		for _, item := range items[offset:end] {
			views = append(views, ProjectEvent(item))
		}
	}

	return &entities.SearchResponse{
		Events: views,
		Pagination: entities.Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
		QueryAnalysis:    analysis,
		ProcessingTimeMs: a.now().Sub(started).Milliseconds(),
		Suggestions:      []string{},
	}
}

// ProjectEvent maps a stored event to its presentation form
func ProjectEvent(item entities.SearchResultItem) entities.EventView {
	e := item.Event
	price := entities.ResolvePrice(e)

	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	return entities.EventView{
		ID:          e.ID.Hex(),
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Venue: entities.VenueView{
			Name:      e.Venue.Name,
			Area:      e.Area(),
			Address:   e.Venue.Address,
			Latitude:  e.Venue.Latitude,
			Longitude: e.Venue.Longitude,
		},
		Price: entities.PriceView{
			Min:      price.Min,
			Max:      price.Max,
			Currency: price.Currency,
			IsFree:   price.IsFree(),
		},
		FamilyScore:      e.FamilyScore,
		AgeRange:         e.AgeRange(),
		Tags:             tags,
		Category:         e.PrimaryCategoryName(),
		ImageURLs:        e.DisplayImages(),
		BookingURL:       e.EventURL,
		IsFamilyFriendly: e.FamilyFriendly(),
		RelevanceScore:   item.Score,
		Rationale:        item.Rationale,
	}
}
