package listing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ethical-rent/models"
)

// ErrNotAListing is returned when a page carries neither a title nor a property type.
var ErrNotAListing = errors.New("listing: page does not look like a property listing")

var (
	bedroomsRegexp = regexp.MustCompile(`(?i)(\d+)\s*bedrooms?\b`)
	studioRegexp   = regexp.MustCompile(`(?i)\bstudio\b`)
	bathsRegexp    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:shared\s+|private\s+)?(?:bathrooms?|baths?)\b`)
	areaRegexp     = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(?:sq\.?\s*ft\.?|square\s+feet|sqft|ft²)`)
	rentRegexp     = regexp.MustCompile(`(?i)\$\s*([\d,]+(?:\.\d+)?)\s*(?:/\s*|per\s+)(?:month|mo)\b`)
	floorRegexp    = regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)?\s+floor\b`)
	yearRegexp     = regexp.MustCompile(`(?i)built\s+in\s+(\d{4})`)
	parkingRegexp  = regexp.MustCompile(`(?i)(\d+)\s+parking\s+spaces?`)
)

// Selectors tried in order; the first non-empty match wins.
var (
	overviewSelectors = []string{
		`[data-section-id="OVERVIEW_DEFAULT_V2"]`,
		`[data-section-id="OVERVIEW_DEFAULT"]`,
		`[data-testid="listing-overview"]`,
	}
	locationSelectors = []string{
		`[data-section-id="LOCATION_DEFAULT"] h3`,
		`[data-testid="listing-location"]`,
	}
	amenitySelectors = []string{
		`[data-section-id="AMENITIES_DEFAULT"] li`,
		`[data-testid="amenity-row"]`,
		`ul.amenities li`,
	}
)

// featureKeywords maps amenity text fragments onto boolean RawProperty fields.
var featureKeywords = []struct {
	keyword string
	set     func(*models.RawProperty)
}{
	{"elevator", func(p *models.RawProperty) { p.HasElevator = "yes" }},
	{"furnished", func(p *models.RawProperty) { p.IsFurnished = "yes" }},
	{"pets allowed", func(p *models.RawProperty) { p.PetFriendly = "yes" }},
	{"pet friendly", func(p *models.RawProperty) { p.PetFriendly = "yes" }},
	{"utilities included", func(p *models.RawProperty) { p.UtilitiesIncluded = "yes" }},
	{"balcony", func(p *models.RawProperty) { p.HasBalcony = "yes" }},
	{"garden", func(p *models.RawProperty) { p.HasGarden = "yes" }},
	{"near public transport", func(p *models.RawProperty) { p.ProximityToTransport = "yes" }},
	{"near schools", func(p *models.RawProperty) { p.ProximityToSchools = "yes" }},
	{"near shops", func(p *models.RawProperty) { p.ProximityToShopping = "yes" }},
}

// ParseListingHTML extracts property attributes from a rendered listing page.
// Values are left as raw text; the cleaner parses and validates them.
func ParseListingHTML(pageURL, html string) (*models.RawProperty, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("listing: parse html: %w", err)
	}

	p := &models.RawProperty{
		ID:     pageURL,
		URL:    pageURL,
		Source: "listing",
		Title:  collapse(doc.Find("h1").First().Text()),
	}

	overview := doc.Find("body")
	for _, sel := range overviewSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			overview = s
			break
		}
	}
	heading := collapse(overview.Find("h2").First().Text())
	if heading == "" {
		heading = collapse(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	p.Type, p.Location = splitHeading(heading)

	for _, sel := range locationSelectors {
		if loc := collapse(doc.Find(sel).First().Text()); loc != "" {
			p.Location = loc
			break
		}
	}

	text := spacedText(overview)
	if m := bedroomsRegexp.FindStringSubmatch(text); m != nil {
		p.Bedrooms = m[1]
	} else if studioRegexp.MatchString(text) {
		p.Bedrooms = "0"
	}
	if m := bathsRegexp.FindStringSubmatch(text); m != nil {
		p.Bathrooms = m[1]
	}

	body := spacedText(doc.Find("body"))
	p.SquareFootage = firstGroup(areaRegexp, text, body)
	p.Floor = firstGroup(floorRegexp, text, body)
	p.YearBuilt = firstGroup(yearRegexp, text, body)
	p.ParkingSpaces = firstGroup(parkingRegexp, text, body)
	p.AskingRent = firstGroup(rentRegexp, body)

	var amenities []string
	for _, sel := range amenitySelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			item := collapse(s.Text())
			if item == "" || strings.HasPrefix(strings.ToLower(item), "unavailable") {
				return
			}
			amenities = append(amenities, item)
			lower := strings.ToLower(item)
			for _, f := range featureKeywords {
				if strings.Contains(lower, f.keyword) {
					f.set(p)
				}
			}
		})
		if len(amenities) > 0 {
			break
		}
	}
	p.Amenities = strings.Join(amenities, ";")

	if p.Title == "" && p.Type == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotAListing, pageURL)
	}
	return p, nil
}

// splitHeading reads "Entire rental unit in Austin, Texas" into its type and
// location halves.
func splitHeading(heading string) (string, string) {
	if i := strings.Index(strings.ToLower(heading), " in "); i >= 0 {
		return strings.TrimSpace(heading[:i]), strings.TrimSpace(heading[i+4:])
	}
	return heading, ""
}

func firstGroup(re *regexp.Regexp, texts ...string) string {
	for _, t := range texts {
		if m := re.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	}
	return ""
}

// spacedText joins every text node under sel with spaces, so adjacent
// elements such as <li>2 bedrooms</li><li>1 bath</li> stay separate words.
func spacedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
			case "script", "style", "noscript":
			default:
				walk(c)
			}
		})
	}
	walk(sel)
	return collapse(strings.Join(parts, " "))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
