// Package caption produces the social media caption and hashtag set for a
// listing from its property attributes.
package caption

import (
	"fmt"
	"math"
	"strings"
	"time"

	"propshot/models"
)

const maxHashtags = 30

var baseHashtags = []string{
	"#realestate", "#realtor", "#homesforsale", "#househunting",
	"#dreamhome", "#realestateagent", "#newlisting", "#property",
	"#realty", "#homesweethome",
}

// Caption renders the post body. Prices at or above one million are
// abbreviated to a two-decimal "M" form; anything below is shown as entered.
func Caption(info models.PropertyInfo) string {
	priceNum := info.PriceNumber()
	priceDisplay := info.Price
	if priceNum >= 1000000 {
		priceDisplay = fmt.Sprintf("$%.2fM", float64(priceNum)/1000000)
	}

	features := featureList(info, time.Now().Year())

	propertyType := info.PropertyType
	if propertyType == "" {
		propertyType = "home"
	}

	var b strings.Builder
	b.WriteString("🏡 NEW LISTING ALERT! 🏡\n")
	fmt.Fprintf(&b, "\n%s", priceDisplay)
	fmt.Fprintf(&b, "\n%d Bedrooms | %s Bathrooms | %s sqft",
		info.Bedrooms, formatBaths(info.Bathrooms), formatThousands(info.SquareFeet))
	fmt.Fprintf(&b, "\n\n📍 %s", info.Address)
	fmt.Fprintf(&b, "\n%s, %s %s", info.City, info.State, info.ZipCode)

	if len(features) > 0 {
		fmt.Fprintf(&b, "\n\n✨ Features: %s", strings.Join(features, ", "))
	}

	fmt.Fprintf(&b, "\n\nThis stunning %s offers everything you've been looking for! ", strings.ToLower(propertyType))
	b.WriteString("Don't miss this incredible opportunity to make it yours.")
	b.WriteString("\n\n💬 DM for more details or to schedule your private showing!")
	b.WriteString("\n🔗 Link in bio for virtual tour")
	b.WriteString("\n\n👉 Tag someone who needs to see this!")

	return b.String()
}

func featureList(info models.PropertyInfo, currentYear int) []string {
	var features []string
	if info.YearBuilt != 0 {
		age := currentYear - info.YearBuilt
		if age <= 5 {
			features = append(features, "newly built")
		} else if age <= 15 {
			features = append(features, "modern construction")
		}
	}
	if info.SquareFeet >= 3000 {
		features = append(features, "spacious layout")
	}
	if info.Bedrooms >= 4 {
		features = append(features, "perfect for families")
	}
	if info.LotSize != "" {
		features = append(features, info.LotSize+" lot")
	}
	return features
}

// Hashtags builds the tag list: a fixed base set, location and type tags, a
// price tier, and size tags. Duplicates are dropped while keeping first-seen
// order, and the result is capped at 30.
func Hashtags(info models.PropertyInfo) []string {
	tags := make([]string, 0, maxHashtags)
	tags = append(tags, baseHashtags...)

	tags = append(tags, "#"+compact(info.City))
	tags = append(tags, "#"+strings.ToLower(info.State)+"realestate")
	tags = append(tags, "#"+compact(info.PropertyType))

	switch priceNum := info.PriceNumber(); {
	case priceNum >= 1000000:
		tags = append(tags, "#luxuryhomes", "#luxuryrealestate", "#luxuryliving")
	case priceNum >= 400000:
		tags = append(tags, "#premiumhomes", "#upscalehomes")
	default:
		tags = append(tags, "#affordablehomes", "#firsttimehomebuyer")
	}

	if info.SquareFeet >= 3000 {
		tags = append(tags, "#spacioushome")
	}
	if info.Bedrooms >= 4 {
		tags = append(tags, "#familyhome")
	}

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "#" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == maxHashtags {
			break
		}
	}
	return out
}

// compact lowercases and strips spaces and hyphens for use in a tag.
func compact(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "-", "")
}

func formatBaths(baths float64) string {
	if baths == math.Trunc(baths) {
		return fmt.Sprintf("%d", int(baths))
	}
	return fmt.Sprintf("%g", baths)
}

func formatThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
