package shipping

import (
	"strings"

	"shipsync/internal/services/shopify"

	"github.com/shopspring/decimal"
)

// Category is the shipping bucket a variant belongs to.
type Category int

const (
	Standard Category = iota
	Discounted
)

func (c Category) String() string {
	if c == Discounted {
		return "discounted"
	}
	return "standard"
}

// Classify puts a variant in Discounted when its compare-at price is present
// and strictly greater than its price. A missing price counts as zero.
func Classify(v shopify.Variant) Category {
	compareAt, ok := parsePrice(v.CompareAtPrice)
	if !ok {
		return Standard
	}
	price, ok := parsePrice(v.Price)
	if !ok {
		if strings.TrimSpace(v.Price.String()) != "" {
			return Standard
		}
		price = decimal.Zero
	}
	if compareAt.GreaterThan(price) {
		return Discounted
	}
	return Standard
}

func parsePrice(raw shopify.FlexString) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw.String())
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// VariantGID returns the global id of a variant, preferring
// admin_graphql_api_id over the numeric REST id. Empty when neither is usable.
func VariantGID(v shopify.Variant) string {
	if v.AdminGraphQLAPIID != "" {
		return v.AdminGraphQLAPIID
	}
	return shopify.GID("ProductVariant", v.ID.String())
}

// Partition splits variants into discounted and standard gids, keeping
// payload order. Variants without a usable id are dropped.
func Partition(variants []shopify.Variant) (discounted, standard []string) {
	for _, v := range variants {
		gid := VariantGID(v)
		if gid == "" {
			continue
		}
		if Classify(v) == Discounted {
			discounted = append(discounted, gid)
		} else {
			standard = append(standard, gid)
		}
	}
	return discounted, standard
}
