package venuesearch

import (
	"github.com/sahraevent/venuesearch/internal/domain/offer"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
	"github.com/sahraevent/venuesearch/internal/repository/dualindex"
	"github.com/sahraevent/venuesearch/internal/usecase/pipeline"
)

func offerToDomain(o *Offer, hot bool) offer.Offer {
	return offer.Offer{
		VendorID:      o.VendorID,
		Title:         o.Title,
		City:          o.City,
		HeadcountMin:  o.HeadcountMin,
		HeadcountMax:  o.HeadcountMax,
		PriceMin:      o.PriceMin,
		PriceMax:      o.PriceMax,
		DurationHours: o.DurationHours,
		Occasion:      o.Occasion,
		Tags:          o.Tags,
		UpdatedAt:     o.UpdatedAt,
		Description:   o.Description,
		Hot:           hot,
	}
}

func filtersToDomain(f Filters) filter.Applied {
	return filter.Applied{
		City:      f.City,
		Occasion:  f.Occasion,
		Headcount: f.Headcount,
		Budget:    f.Budget,
		Date:      f.Date,
	}
}

func resultFromDomain(r *pipeline.Result) Result {
	venues := make([]Venue, len(r.Docs))
	for i := range r.Docs {
		d := &r.Docs[i]
		venues[i] = Venue{
			ID:           d.ID,
			VendorID:     d.Meta.VendorID,
			Title:        d.Meta.Title,
			City:         d.Meta.City,
			HeadcountMin: d.Meta.HeadcountMin,
			HeadcountMax: d.Meta.HeadcountMax,
			PriceMin:     d.Meta.PriceMin,
			PriceMax:     d.Meta.PriceMax,
			Occasion:     d.Meta.Occasion,
			Tags:         d.Meta.Tags,
			UpdatedAt:    d.Meta.UpdatedAt,
			Snippet:      d.Snippet,
			Score:        d.Score,
		}
	}
	return Result{
		RunID:    r.RunID,
		Answer:   r.Answer,
		Venues:   venues,
		Missing:  r.Validation.Missing,
		StaleIDs: r.Validation.StaleIDs,
		Slots: Slots{
			Intent:      r.Slots.Intent,
			City:        r.Slots.City,
			Occasion:    r.Slots.Occasion,
			Headcount:   r.Slots.Headcount,
			Budget:      r.Slots.Budget,
			Date:        r.Slots.Date,
			Constraints: r.Slots.Constraints,
		},
	}
}

func statsFromDomain(s dualindex.Stats) IndexStats {
	return IndexStats{Stable: s.Stable, Hot: s.Hot, Dense: s.Dense, Generation: s.Generation}
}
