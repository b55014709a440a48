package caption

import (
	"strings"
	"testing"
	"time"

	"propshot/models"
)

func validTagParams() models.PropertyInfoParams {
	return models.PropertyInfoParams{
		Price:      "450,000",
		Bedrooms:   3,
		Bathrooms:  2,
		SquareFeet: 1500,
		Address:    "1 Any St",
		City:       "Austin",
		State:      "TX",
		ZipCode:    "78701",
	}
}

func mustInfo(t *testing.T, p models.PropertyInfoParams) models.PropertyInfo {
	t.Helper()
	info, err := models.NewPropertyInfo(p)
	if err != nil {
		t.Fatalf("build property info: %v", err)
	}
	return info
}

func TestCaptionMidRangePrice(t *testing.T) {
	info := mustInfo(t, models.PropertyInfoParams{
		Price:      "450,000",
		Bedrooms:   3,
		Bathrooms:  2.5,
		SquareFeet: 1800,
		Address:    "123 Oak Lane",
		City:       "Austin",
		State:      "TX",
		ZipCode:    "78701",
	})

	got := Caption(info)
	if !strings.Contains(got, "450,000") {
		t.Fatalf("caption should show the price as entered:\n%s", got)
	}
	if strings.Contains(got, "$0.45M") {
		t.Fatalf("sub-million price should not be abbreviated:\n%s", got)
	}
	if !strings.Contains(got, "3 Bedrooms | 2.5 Bathrooms | 1,800 sqft") {
		t.Fatalf("caption missing specs line:\n%s", got)
	}
	if !strings.Contains(got, "123 Oak Lane") || !strings.Contains(got, "Austin, TX 78701") {
		t.Fatalf("caption missing address block:\n%s", got)
	}
}

func TestCaptionMillionAbbreviation(t *testing.T) {
	info := mustInfo(t, models.PropertyInfoParams{
		Price:      "1,250,000",
		Bedrooms:   5,
		Bathrooms:  4,
		SquareFeet: 4200,
		Address:    "9 Summit Ridge",
		City:       "Aspen",
		State:      "CO",
		ZipCode:    "81611",
	})

	got := Caption(info)
	if !strings.Contains(got, "$1.25M") {
		t.Fatalf("expected abbreviated price $1.25M:\n%s", got)
	}
	if strings.Contains(got, "1,250,000") {
		t.Fatalf("raw price should not appear when abbreviated:\n%s", got)
	}
}

func TestCaptionFeatures(t *testing.T) {
	info := mustInfo(t, models.PropertyInfoParams{
		Price:      "650,000",
		Bedrooms:   4,
		Bathrooms:  3,
		SquareFeet: 3500,
		Address:    "44 Meadow Ct",
		City:       "Boise",
		State:      "ID",
		ZipCode:    "83702",
		LotSize:    "0.5 acre",
	})

	got := Caption(info)
	if !strings.Contains(got, "spacious layout") {
		t.Fatalf("3500 sqft should yield spacious layout feature:\n%s", got)
	}
	if !strings.Contains(got, "perfect for families") {
		t.Fatalf("4 bedrooms should yield family feature:\n%s", got)
	}
	if !strings.Contains(got, "0.5 acre lot") {
		t.Fatalf("lot size should appear as a feature:\n%s", got)
	}
}

func TestFeatureListAgeBrackets(t *testing.T) {
	const year = 2026
	cases := []struct {
		name      string
		yearBuilt int
		want      string
	}{
		{"brand new", 2026, "newly built"},
		{"five years old", 2021, "newly built"},
		{"six years old", 2020, "modern construction"},
		{"fifteen years old", 2011, "modern construction"},
		{"sixteen years old", 2010, ""},
		{"year unknown", 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validTagParams()
			p.YearBuilt = tc.yearBuilt
			features := featureList(mustInfo(t, p), year)

			var ageFeature string
			for _, f := range features {
				if f == "newly built" || f == "modern construction" {
					ageFeature = f
				}
			}
			if ageFeature != tc.want {
				t.Fatalf("year built %d: age feature %q, want %q", tc.yearBuilt, ageFeature, tc.want)
			}
		})
	}
}

func TestCaptionIncludesAgeFeature(t *testing.T) {
	p := validTagParams()
	p.YearBuilt = time.Now().Year() - 2

	got := Caption(mustInfo(t, p))
	if !strings.Contains(got, "newly built") {
		t.Fatalf("recent build year should surface in the caption:\n%s", got)
	}
}

func TestCaptionOmitsFeatureLineWhenEmpty(t *testing.T) {
	info := mustInfo(t, models.PropertyInfoParams{
		Price:      "300,000",
		Bedrooms:   2,
		Bathrooms:  1,
		SquareFeet: 900,
		Address:    "7 Birch St",
		City:       "Tulsa",
		State:      "OK",
		ZipCode:    "74103",
	})

	if got := Caption(info); strings.Contains(got, "Features:") {
		t.Fatalf("no features expected:\n%s", got)
	}
}

func TestHashtagsPremiumTier(t *testing.T) {
	info := mustInfo(t, models.PropertyInfoParams{
		Price:      "450,000",
		Bedrooms:   3,
		Bathrooms:  2.5,
		SquareFeet: 1800,
		Address:    "123 Oak Lane",
		City:       "Austin",
		State:      "TX",
		ZipCode:    "78701",
	})

	tags := Hashtags(info)
	set := toSet(tags)

	for _, want := range []string{"#premiumhomes", "#upscalehomes", "#austin", "#txrealestate", "#singlefamilyhome"} {
		if !set[want] {
			t.Fatalf("expected %s in %v", want, tags)
		}
	}
	for _, bad := range []string{"#luxuryhomes", "#affordablehomes", "#spacioushome", "#familyhome"} {
		if set[bad] {
			t.Fatalf("did not expect %s in %v", bad, tags)
		}
	}
}

func TestHashtagsLuxuryTier(t *testing.T) {
	info := mustInfo(t, models.PropertyInfoParams{
		Price:      "$2,100,000",
		Bedrooms:   6,
		Bathrooms:  5,
		SquareFeet: 6800,
		Address:    "1 Cliffside Dr",
		City:       "La Jolla",
		State:      "CA",
		ZipCode:    "92037",
	})

	set := toSet(Hashtags(info))
	for _, want := range []string{"#luxuryhomes", "#luxuryrealestate", "#luxuryliving", "#lajolla", "#spacioushome", "#familyhome"} {
		if !set[want] {
			t.Fatalf("expected %s in hashtags", want)
		}
	}
}

func TestHashtagsAffordableTier(t *testing.T) {
	info := mustInfo(t, models.PropertyInfoParams{
		Price:      "275,000",
		Bedrooms:   2,
		Bathrooms:  1,
		SquareFeet: 1100,
		Address:    "88 Mill Rd",
		City:       "Winston-Salem",
		State:      "NC",
		ZipCode:    "27101",
	})

	set := toSet(Hashtags(info))
	if !set["#affordablehomes"] || !set["#firsttimehomebuyer"] {
		t.Fatal("expected affordable tier tags")
	}
	// Spaces and hyphens are stripped out of the city tag.
	if !set["#winstonsalem"] {
		t.Fatal("expected compacted city tag #winstonsalem")
	}
}

func TestHashtagsPriceTierBoundaries(t *testing.T) {
	cases := []struct {
		price string
		want  string
	}{
		{"399,999", "#affordablehomes"},
		{"400,000", "#premiumhomes"},
		{"999,999", "#premiumhomes"},
		{"1,000,000", "#luxuryhomes"},
	}

	for _, tc := range cases {
		p := validTagParams()
		p.Price = tc.price
		set := toSet(Hashtags(mustInfo(t, p)))
		if !set[tc.want] {
			t.Fatalf("price %s: expected %s", tc.price, tc.want)
		}
	}
}

func TestHashtagsDeduplicatedAndCapped(t *testing.T) {
	info := mustInfo(t, models.PropertyInfoParams{
		Price:      "450,000",
		Bedrooms:   3,
		Bathrooms:  2,
		SquareFeet: 1500,
		Address:    "1 Any St",
		City:       "Realty", // compacts to a duplicate of the base #realty
		State:      "TX",
		ZipCode:    "75001",
	})

	tags := Hashtags(info)
	if len(tags) > 30 {
		t.Fatalf("hashtags exceed cap: %d", len(tags))
	}

	seen := map[string]bool{}
	for _, tag := range tags {
		if seen[tag] {
			t.Fatalf("duplicate hashtag %s", tag)
		}
		seen[tag] = true
	}
}

func toSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag] = true
	}
	return set
}
