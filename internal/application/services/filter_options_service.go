package services

import (
	"context"
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/repositories"
	"github.com/mydscvr/backend/pkg/dateutil"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

func priceCeiling(v float64) *float64 { return &v }

// Fixed price buckets offered to clients, in AED
var priceRangeOptions = []entities.PriceRangeOption{
	{Min: 0, Max: priceCeiling(0), Label: "Free"},
	{Min: 1, Max: priceCeiling(100), Label: "Under 100 AED"},
	{Min: 101, Max: priceCeiling(300), Label: "101-300 AED"},
	{Min: 301, Max: priceCeiling(500), Label: "301-500 AED"},
	{Min: 501, Label: "Above 500 AED"},
}

var ageGroupOptions = []string{"All ages", "0-3 years", "4-7 years", "8-12 years", "13+ years", "Adults only"}

// FilterOptionsService lists the values clients can build filters from
type FilterOptionsService struct {
	repo repositories.EventRepository
}

func NewFilterOptionsService(repo repositories.EventRepository) *FilterOptionsService {
	return &FilterOptionsService{repo: repo}
}

// FilterOptions reads active categories and areas concurrently
func (s *FilterOptionsService) FilterOptions(ctx context.Context) (*entities.FilterOptions, error) {
	active := bson.M{"status": "active"}

	var categories, areas []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.repo.Distinct(gctx, "category", active)
		return err
	})
	g.Go(func() error {
		var err error
		areas, err = s.repo.Distinct(gctx, "venue.area", active)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err)
	}

	return &entities.FilterOptions{
		Categories:  nonNil(categories),
		Areas:       nonNil(areas),
		PriceRanges: append([]entities.PriceRangeOption(nil), priceRangeOptions...),
		AgeGroups:   append([]string(nil), ageGroupOptions...),
	}, nil
}

// DateFilterOptions resolves every named range against now
func (s *FilterOptionsService) DateFilterOptions(now time.Time) []entities.DateFilterOption {
	ranges := dateutil.AllNamedRanges()
	out := make([]entities.DateFilterOption, 0, len(ranges))
	for _, r := range ranges {
		opt := entities.DateFilterOption{Value: string(r), Recurring: r.IsRecurring()}
		if !opt.Recurring {
			start, end, err := dateutil.RangeFor(r, now)
			if err != nil {
				continue
			}
			opt.DateFrom, opt.DateTo = &start, &end
		}
		out = append(out, opt)
	}
	return out
}
