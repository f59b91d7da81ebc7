package shipping

import (
	"context"
	"strings"

	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/shiprate"
)

type rateClient interface {
	Provinces(ctx context.Context) ([]shiprate.Province, error)
	Cities(ctx context.Context, provinceID string) ([]shiprate.City, error)
	Subdistricts(ctx context.Context, cityID string) ([]shiprate.Subdistrict, error)
	Costs(ctx context.Context, req shiprate.CostRequest) ([]shiprate.CostOption, error)
}

// Service exposes region lookups and rate quotes from the store's fixed
// origin.
type Service struct {
	client       rateClient
	originCityID string
}

// NewService wraps the rate client with the configured origin city.
func NewService(client rateClient, originCityID string) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "shipping rate client required")
	}
	if strings.TrimSpace(originCityID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "shipping origin city required")
	}
	return &Service{client: client, originCityID: originCityID}, nil
}

// Provinces lists all provinces.
func (s *Service) Provinces(ctx context.Context) ([]shiprate.Province, error) {
	return s.client.Provinces(ctx)
}

// Cities lists the cities of a province.
func (s *Service) Cities(ctx context.Context, provinceID string) ([]shiprate.City, error) {
	return s.client.Cities(ctx, provinceID)
}

// Subdistricts lists the subdistricts of a city.
func (s *Service) Subdistricts(ctx context.Context, cityID string) ([]shiprate.Subdistrict, error) {
	return s.client.Subdistricts(ctx, cityID)
}

// RateQuote is one courier service option for a destination and weight.
type RateQuote struct {
	Courier     string `json:"courier"`
	Service     string `json:"service"`
	Description string `json:"description"`
	CostCents   int64  `json:"cost_cents"`
	ETD         string `json:"etd"`
}

// Rates quotes every requested courier for a destination city and parcel
// weight. A courier whose lookup fails is skipped only if another courier
// succeeded; an empty result surfaces the last error.
func (s *Service) Rates(ctx context.Context, destinationCityID string, weightGram int, couriers []string) ([]RateQuote, error) {
	if strings.TrimSpace(destinationCityID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination city is required")
	}
	if weightGram <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if len(couriers) == 0 {
		couriers = []string{"jne", "tiki", "pos"}
	}

	quotes := []RateQuote{}
	var lastErr error
	for _, courier := range couriers {
		options, err := s.client.Costs(ctx, shiprate.CostRequest{
			OriginCityID:      s.originCityID,
			DestinationCityID: destinationCityID,
			WeightGram:        weightGram,
			Courier:           courier,
		})
		if err != nil {
			lastErr = err
			continue
		}
		for _, option := range options {
			quotes = append(quotes, RateQuote{
				Courier:     strings.ToLower(courier),
				Service:     option.Service,
				Description: option.Description,
				CostCents:   option.CostCents,
				ETD:         option.ETD,
			})
		}
	}

	if len(quotes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return quotes, nil
}
