package pure_utils

import (
	"strings"
	"sync"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/biter777/countries"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	countryFuzzyMatchThreshold = 0.88
	countryCacheSize           = 500
	countryCacheTTL            = 6 * time.Hour
)

var (
	countryCache     *expirable.LRU[string, string]
	countryCacheOnce sync.Once
)

func getCountryCache() *expirable.LRU[string, string] {
	countryCacheOnce.Do(func() {
		countryCache = expirable.NewLRU[string, string](countryCacheSize, nil, countryCacheTTL)
	})
	return countryCache
}

// NormalizeCountry returns the ISO 3166-1 alpha-2 code of a country given as a name,
// an alpha-2 or an alpha-3 code. Document readers often return names with typos or
// in upper case, so a Jaro-Winkler match on the english names is used as a fallback.
// The trimmed input is returned when no country can be recognized.
func NormalizeCountry(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if c := countries.ByName(input); c != countries.Unknown {
		return c.Alpha2()
	}

	cache := getCountryCache()
	if cached, ok := cache.Get(input); ok {
		return cached
	}

	result := input
	if c, ok := closestCountry(input); ok {
		result = c.Alpha2()
	}
	cache.Add(input, result)
	return result
}

func closestCountry(input string) (countries.CountryCode, bool) {
	lowerInput := strings.ToLower(input)
	metric := metrics.NewJaroWinkler()

	best := countries.Unknown
	bestScore := 0.0
	for _, c := range countries.All() {
		if c == countries.Unknown {
			continue
		}
		score := strutil.Similarity(lowerInput, strings.ToLower(c.Info().Name), metric)
		if score > bestScore {
			best, bestScore = c, score
		}
	}

	return best, bestScore >= countryFuzzyMatchThreshold && best != countries.Unknown
}
