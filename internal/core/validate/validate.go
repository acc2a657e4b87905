// Package validate checks caller input before it reaches a retried operation. Every check
// returns a taxonomy error so validation failures stay out of default retryable sets.
package validate

import (
	"errors"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/resilience/internal/core/failure"
)

// DateLayout is the accepted calendar date format.
const DateLayout = time.DateOnly

// MaxPrice is the largest price accepted as plausible.
const MaxPrice = 1_000_000

// Market identifies a supported exchange group.
type Market string

const (
	MarketCN Market = "CN"
	MarketUS Market = "US"
	MarketHK Market = "HK"
)

// Markets lists supported markets.
var Markets = []Market{MarketCN, MarketUS, MarketHK}

var symbolPatterns = map[Market]*regexp.Regexp{
	MarketCN: regexp.MustCompile(`^\d{6}$`),
	MarketUS: regexp.MustCompile(`^[A-Z]{1,5}$`),
	MarketHK: regexp.MustCompile(`^\d{5}$`),
}

var symbolShapes = map[Market]string{
	MarketCN: "6 digits",
	MarketUS: "1-5 letters",
	MarketHK: "5 digits",
}

// ParseMarket normalizes s and checks it names a supported market.
func ParseMarket(s string) (Market, error) {
	m := Market(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := symbolPatterns[m]; !ok {
		return "", failure.New(failure.InvalidMarket, "unsupported market %q, supported: %v", s, Markets)
	}
	return m, nil
}

// Date parses s with DateLayout.
func Date(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, failure.Wrap(failure.Validation, err, "invalid date %q, expected %s", s, DateLayout)
	}
	return t, nil
}

// DateRange checks that s is a valid date within [minDate, maxDate]. Empty bounds are open.
func DateRange(s, minDate, maxDate string) error {
	d, err := Date(s)
	if err != nil {
		return err
	}
	if minDate != "" {
		lo, err := Date(minDate)
		if err != nil {
			return err
		}
		if d.Before(lo) {
			return failure.New(failure.Validation, "date %s is before minimum date %s", s, minDate)
		}
	}
	if maxDate != "" {
		hi, err := Date(maxDate)
		if err != nil {
			return err
		}
		if d.After(hi) {
			return failure.New(failure.Validation, "date %s is after maximum date %s", s, maxDate)
		}
	}
	return nil
}

// Symbol normalizes a ticker and checks its shape for market.
func Symbol(symbol string, market Market) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", failure.New(failure.InvalidSymbol, "stock symbol is empty")
	}
	re, ok := symbolPatterns[market]
	if !ok {
		return "", failure.New(failure.InvalidMarket, "unsupported market %q", market)
	}
	if !re.MatchString(s) {
		return "", failure.New(failure.InvalidSymbol, "invalid %s symbol %q, expected %s", market, s, symbolShapes[market])
	}
	return s, nil
}

// Symbols checks every symbol and returns the invalid ones along with their joined errors.
func Symbols(symbols []string, market Market) ([]string, error) {
	var (
		invalid []string
		errs    []error
	)
	for _, s := range symbols {
		if _, err := Symbol(s, market); err != nil {
			invalid = append(invalid, s)
			errs = append(errs, err)
		}
	}
	return invalid, errors.Join(errs...)
}

// Required returns the trimmed value or a Configuration error naming the missing key.
func Required(value, name string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", failure.New(failure.Configuration, "%s is required but not provided", name)
	}
	return v, nil
}

// NotEmpty checks that a string has non-blank content.
func NotEmpty(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return failure.New(failure.Validation, "%s cannot be empty", name)
	}
	return nil
}

// NotEmptySlice checks that a slice has at least one element.
func NotEmptySlice[T any](value []T, name string) error {
	if len(value) == 0 {
		return failure.New(failure.Validation, "%s cannot be empty", name)
	}
	return nil
}

// Positive parses value as a number and checks it is above zero, or at least zero with allowZero.
func Positive(value, name string, allowZero bool) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, failure.Wrap(failure.Validation, err, "%s must be a number, got %q", name, value)
	}
	switch {
	case allowZero && n < 0:
		return 0, failure.New(failure.Validation, "%s must be non-negative, got %v", name, n)
	case !allowZero && n <= 0:
		return 0, failure.New(failure.Validation, "%s must be positive, got %v", name, n)
	}
	return n, nil
}

// IntRange parses value as an integer and checks it against optional inclusive bounds.
func IntRange(value, name string, minVal, maxVal *int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, failure.Wrap(failure.Validation, err, "%s must be an integer, got %q", name, value)
	}
	if minVal != nil && n < *minVal {
		return 0, failure.New(failure.Validation, "%s must be >= %d, got %d", name, *minVal, n)
	}
	if maxVal != nil && n > *maxVal {
		return 0, failure.New(failure.Validation, "%s must be <= %d, got %d", name, *maxVal, n)
	}
	return n, nil
}

// Percentage checks v lies in [minVal, maxVal].
func Percentage(v float64, name string, minVal, maxVal float64) error {
	if v < minVal || v > maxVal {
		return failure.New(failure.Validation, "%s out of range: %v, expected [%v, %v]", name, v, minVal, maxVal)
	}
	return nil
}

// Price checks a quote is positive and not implausibly large.
func Price(price float64, symbol string) error {
	if price <= 0 {
		return failure.New(failure.Validation, "invalid price for %s: %v (must be positive)", symbol, price)
	}
	if price > MaxPrice {
		return failure.New(failure.Validation, "suspicious high price for %s: %v", symbol, price)
	}
	return nil
}

// Volume checks a traded volume is not negative.
func Volume(volume int64, symbol string) error {
	if volume < 0 {
		return failure.New(failure.Validation, "invalid volume for %s: %d (cannot be negative)", symbol, volume)
	}
	return nil
}

// URL parses raw and checks it is an absolute http or https URL with a host.
func URL(raw, name string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, failure.New(failure.Validation, "%s cannot be empty", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, failure.Wrap(failure.Validation, err, "invalid %s %q", name, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, failure.New(failure.Validation, "%s should start with http:// or https://: %s", name, raw)
	}
	if u.Host == "" {
		return nil, failure.New(failure.Validation, "%s has no host: %s", name, raw)
	}
	return u, nil
}

// ModelConfig is the connection settings of a model provider.
type ModelConfig struct {
	Provider  string
	ModelName string
	APIKey    string
	BaseURL   string
}

// keyedProviders need an API key and base URL in addition to a model name.
var keyedProviders = []string{"openai", "gemini"}

// Validate checks that every field the provider needs is present and that BaseURL, when set,
// is a valid http(s) URL.
func (m ModelConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(m.ModelName) == "" {
		missing = append(missing, "model_name")
	}
	provider := strings.ToLower(strings.TrimSpace(m.Provider))
	if slices.Contains(keyedProviders, provider) {
		if strings.TrimSpace(m.APIKey) == "" {
			missing = append(missing, "api_key")
		}
		if strings.TrimSpace(m.BaseURL) == "" {
			missing = append(missing, "base_url")
		}
	}
	if len(missing) > 0 {
		return failure.New(failure.Configuration, "missing required fields for %s: %s",
			m.Provider, strings.Join(missing, ", "))
	}

	if strings.TrimSpace(m.BaseURL) != "" {
		if _, err := URL(m.BaseURL, m.Provider+" base_url"); err != nil {
			return failure.Wrap(failure.Configuration, err, "invalid base_url for %s", m.Provider)
		}
	}
	return nil
}
