package guides

import (
	"context"
	"encoding/json"

	"github.com/okwaro/safaribook/internal/domain"
	"github.com/okwaro/safaribook/internal/pricing"
	"github.com/okwaro/safaribook/internal/timezone"
)

type GuideUseCase interface {
	Get(ctx context.Context, id string) (*domain.Guide, error)
	List(ctx context.Context) ([]domain.Guide, error)
	Quote(ctx context.Context, id string, stay domain.StayInterval, group domain.GroupComposition) (*Quote, error)
}

// Fetcher is the slice of the backend client this service needs.
type Fetcher interface {
	GetGuide(ctx context.Context, id string) (json.RawMessage, error)
	ListGuides(ctx context.Context) ([]json.RawMessage, error)
}

type Cache interface {
	GetGuide(ctx context.Context, id string) (*domain.Guide, error)
	SetGuide(ctx context.Context, g *domain.Guide) error
}

type GuideService struct {
	fetcher Fetcher
	cache   Cache
}

func NewGuideService(fetcher Fetcher, cache Cache) *GuideService {
	return &GuideService{fetcher: fetcher, cache: cache}
}

// Quote is a priced stay for one guide.
type Quote struct {
	GuideID  string  `json:"guide_id"`
	StayDays int     `json:"stay_days"`
	Guests   int     `json:"guests"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Timezone string  `json:"timezone"`
}

func (s *GuideService) Get(ctx context.Context, id string) (*domain.Guide, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetGuide(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	raw, err := s.fetcher.GetGuide(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetGuide(ctx, g)
	}
	return g, nil
}

func (s *GuideService) List(ctx context.Context) ([]domain.Guide, error) {
	raws, err := s.fetcher.ListGuides(ctx)
	if err != nil {
		return nil, err
	}
	guides := make([]domain.Guide, 0, len(raws))
	for _, raw := range raws {
		g, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		guides = append(guides, *g)
	}
	return guides, nil
}

func (s *GuideService) Quote(ctx context.Context, id string, stay domain.StayInterval, group domain.GroupComposition) (*Quote, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	days := stay.Days()
	return &Quote{
		GuideID:  g.ID,
		StayDays: days,
		Guests:   group.Size(),
		Amount:   pricing.EstimateForGuide(g, days, group.Size()),
		Currency: pricing.Currency(g.Rates, g.Currency),
		Timezone: resolveZone(g),
	}, nil
}

var _ GuideUseCase = (*GuideService)(nil)

func resolveZone(g *domain.Guide) string {
	return timezone.Resolve(g.LocationID, g.Country)
}
