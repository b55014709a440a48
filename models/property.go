package models

import (
	"strings"
	"time"

	"propshot/apperr"
)

const defaultPropertyType = "Single Family Home"

// PropertyInfo describes the listing attributes rendered onto the composed
// graphic and fed to the caption generator. Construct it with NewPropertyInfo;
// the constructor owns all range checks so rendering code never re-validates.
type PropertyInfo struct {
	Price        string
	Bedrooms     int
	Bathrooms    float64
	SquareFeet   int
	Address      string
	City         string
	State        string
	ZipCode      string
	PropertyType string
	YearBuilt    int    // 0 = unknown
	LotSize      string // "" = unknown
}

// PropertyInfoParams is the wire-facing, unvalidated shape.
type PropertyInfoParams struct {
	Price        string  `json:"price"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    float64 `json:"bathrooms"`
	SquareFeet   int     `json:"square_feet"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZipCode      string  `json:"zip_code"`
	PropertyType string  `json:"property_type,omitempty"`
	YearBuilt    int     `json:"year_built,omitempty"`
	LotSize      string  `json:"lot_size,omitempty"`
}

func NewPropertyInfo(p PropertyInfoParams) (PropertyInfo, error) {
	if strings.TrimSpace(p.Price) == "" {
		return PropertyInfo{}, apperr.New(apperr.KindInvalidInput, "price is required")
	}
	if p.Bedrooms < 0 || p.Bedrooms > 50 {
		return PropertyInfo{}, apperr.New(apperr.KindInvalidInput, "bedrooms must be between 0 and 50, got %d", p.Bedrooms)
	}
	if p.Bathrooms < 0 || p.Bathrooms > 50 {
		return PropertyInfo{}, apperr.New(apperr.KindInvalidInput, "bathrooms must be between 0 and 50, got %g", p.Bathrooms)
	}
	if p.SquareFeet < 100 || p.SquareFeet > 1000000 {
		return PropertyInfo{}, apperr.New(apperr.KindInvalidInput, "square feet must be between 100 and 1,000,000, got %d", p.SquareFeet)
	}
	if p.YearBuilt != 0 && (p.YearBuilt < 1600 || p.YearBuilt > time.Now().Year()+1) {
		return PropertyInfo{}, apperr.New(apperr.KindInvalidInput, "year built %d is out of range", p.YearBuilt)
	}

	propertyType := strings.TrimSpace(p.PropertyType)
	if propertyType == "" {
		propertyType = defaultPropertyType
	}

	return PropertyInfo{
		Price:        strings.TrimSpace(p.Price),
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		SquareFeet:   p.SquareFeet,
		Address:      strings.TrimSpace(p.Address),
		City:         strings.TrimSpace(p.City),
		State:        strings.TrimSpace(p.State),
		ZipCode:      strings.TrimSpace(p.ZipCode),
		PropertyType: propertyType,
		YearBuilt:    p.YearBuilt,
		LotSize:      strings.TrimSpace(p.LotSize),
	}, nil
}

// PriceNumber returns the digits of the formatted price as an integer.
func (p PropertyInfo) PriceNumber() int {
	var result int
	for _, c := range p.Price {
		if c >= '0' && c <= '9' {
			result = result*10 + int(c-'0')
		}
	}
	return result
}
