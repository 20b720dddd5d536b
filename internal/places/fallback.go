package places

import (
	"fmt"
	"strings"

	"github.com/rpggio/groupbite/internal/domain/candidate"
)

type poolEntry struct {
	name        string
	address     string
	phone       string
	website     string
	rating      float64
	ratingCount int
	priceLevel  int
	types       []string
	lat, lng    float64
}

var fallbackPool = []poolEntry{
	{"Pizza Palace", "123 Main St, Downtown", "+1-555-0123", "https://pizzapalace.com", 4.5, 1250, 2, []string{"pizza", "restaurant", "food"}, 37.7749, -122.4194},
	{"Sushi Master", "456 Oak Ave, Midtown", "+1-555-0456", "https://sushimaster.com", 4.8, 890, 3, []string{"sushi", "japanese", "restaurant", "food"}, 37.7849, -122.4094},
	{"Taco Fiesta", "789 Pine St, Uptown", "+1-555-0789", "https://tacofiesta.com", 4.2, 567, 1, []string{"mexican", "restaurant", "food"}, 37.7649, -122.4294},
	{"Burger Joint", "321 Elm St, Downtown", "+1-555-0321", "https://burgerjoint.com", 4.0, 1200, 2, []string{"american", "restaurant", "food"}, 37.7749, -122.4194},
	{"Pasta House", "654 Maple Dr, Midtown", "+1-555-0654", "https://pastahouse.com", 4.6, 750, 3, []string{"italian", "restaurant", "food"}, 37.7849, -122.4094},
	{"Curry Corner", "987 Cedar Ln, Uptown", "+1-555-0987", "https://currycorner.com", 4.4, 680, 2, []string{"indian", "restaurant", "food"}, 37.7649, -122.4294},
	{"Pho Express", "147 Birch Ave, Downtown", "+1-555-0147", "https://phoexpress.com", 4.3, 420, 1, []string{"vietnamese", "restaurant", "food"}, 37.7749, -122.4194},
	{"Steak House", "258 Spruce St, Midtown", "+1-555-0258", "https://steakhouse.com", 4.7, 950, 4, []string{"american", "steakhouse", "restaurant", "food"}, 37.7849, -122.4094},
	{"Ramen Shop", "369 Willow Way, Uptown", "+1-555-0369", "https://ramenshop.com", 4.5, 580, 2, []string{"japanese", "ramen", "restaurant", "food"}, 37.7649, -122.4294},
	{"Greek Taverna", "741 Poplar Blvd, Downtown", "+1-555-0741", "https://greektaverna.com", 4.1, 320, 2, []string{"greek", "mediterranean", "restaurant", "food"}, 37.7749, -122.4194},
	{"Thai Spice", "852 Magnolia Dr, Midtown", "+1-555-0852", "https://thaispice.com", 4.4, 450, 2, []string{"thai", "restaurant", "food"}, 37.7849, -122.4094},
	{"BBQ Pit", "963 Hickory Ln, Uptown", "+1-555-0963", "https://bbqpit.com", 4.6, 780, 3, []string{"american", "bbq", "restaurant", "food"}, 37.7649, -122.4294},
	{"Seafood Market", "159 Cypress St, Downtown", "+1-555-0159", "https://seafoodmarket.com", 4.3, 620, 3, []string{"seafood", "restaurant", "food"}, 37.7749, -122.4194},
	{"Vegan Garden", "357 Sycamore Ave, Midtown", "+1-555-0357", "https://vegangarden.com", 4.2, 380, 2, []string{"vegan", "vegetarian", "restaurant", "food"}, 37.7849, -122.4094},
	{"Dessert Cafe", "486 Cherry Way, Uptown", "+1-555-0486", "https://dessertcafe.com", 4.5, 290, 2, []string{"cafe", "dessert", "restaurant", "food"}, 37.7649, -122.4294},
}

// FallbackPool returns the fixed candidate pool served when the API is
// unavailable, in pool order. Each call returns fresh values.
func FallbackPool() []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(fallbackPool))
	for i, e := range fallbackPool {
		out = append(out, candidate.Candidate{
			ID:          fmt.Sprintf("fallback-%d", i+1),
			Name:        e.name,
			Address:     e.address,
			Phone:       ptr(e.phone),
			Website:     ptr(e.website),
			Rating:      ptr(e.rating),
			RatingCount: ptr(e.ratingCount),
			PriceLevel:  ptr(e.priceLevel),
			Types:       append([]string(nil), e.types...),
			OpenNow:     ptr(true),
			Location:    candidate.Coordinate{Lat: e.lat, Lng: e.lng},
		})
	}
	return out
}

// FilterFallback applies the search filters to the pool. A keyword matches
// the name or any tag as a case-insensitive substring. A price level above
// zero requires that exact tier. The tag filter is skipped when the
// requested tags include the generic restaurant tag.
func FilterFallback(pool []candidate.Candidate, f candidate.Filters) []candidate.Candidate {
	keyword := strings.ToLower(f.Keyword)
	filterTypes := len(f.Types) > 0 && !containsFold(f.Types, candidate.DefaultType)

	out := make([]candidate.Candidate, 0, len(pool))
	for _, c := range pool {
		if keyword != "" && !matchesKeyword(c, keyword) {
			continue
		}
		if f.PriceLevel > 0 && (c.PriceLevel == nil || *c.PriceLevel != f.PriceLevel) {
			continue
		}
		if filterTypes && !hasAnyType(c, f.Types) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesKeyword(c candidate.Candidate, keyword string) bool {
	if strings.Contains(strings.ToLower(c.Name), keyword) {
		return true
	}
	for _, t := range c.Types {
		if strings.Contains(strings.ToLower(t), keyword) {
			return true
		}
	}
	return false
}

func hasAnyType(c candidate.Candidate, types []string) bool {
	for _, t := range types {
		if c.HasType(t) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T {
	return &v
}
