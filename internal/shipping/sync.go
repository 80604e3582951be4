package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shipsync/internal/logger"
	"shipsync/internal/services/shopify"
)

// ErrHandleNotFound is returned when a variant's product handle cannot be resolved.
var ErrHandleNotFound = errors.New("could not resolve product handle for variant")

// ProductSource reads product data when a webhook payload is incomplete.
type ProductSource interface {
	GetProduct(ctx context.Context, productID string) (*shopify.Product, error)
	ProductWithVariants(ctx context.Context, productGID string) (*shopify.Product, error)
	ProductVariantHandle(ctx context.Context, variantGID string) (string, error)
}

type Options struct {
	RebajasProfileID   string
	GeneralProfileID   string
	ExcludeHandle      string
	ExplicitDissociate bool
}

// Outcome is what a product update resolved to.
type Outcome struct {
	Handle       string
	Excluded     bool
	NoVariants   bool
	RebajasCount int
	GeneralCount int
	Result       *Result
}

type Syncer struct {
	source     ProductSource
	reconciler *Reconciler
	opts       Options
	logger     *logger.Logger
}

func NewSyncer(source ProductSource, reconciler *Reconciler, opts Options, logger *logger.Logger) *Syncer {
	opts.ExcludeHandle = strings.ToLower(strings.TrimSpace(opts.ExcludeHandle))
	return &Syncer{
		source:     source,
		reconciler: reconciler,
		opts:       opts,
		logger:     logger,
	}
}

// Excluded reports whether handle matches the configured exclusion substring.
func (s *Syncer) Excluded(handle string) bool {
	return s.opts.ExcludeHandle != "" && strings.Contains(strings.ToLower(handle), s.opts.ExcludeHandle)
}

// SyncProduct moves the variants of an updated product into the profile
// matching their discount state. The returned error covers only failures to
// resolve the product; batch failures are reported in Outcome.Result.
func (s *Syncer) SyncProduct(ctx context.Context, payload *shopify.WebhookPayload) (*Outcome, error) {
	handle := strings.ToLower(payload.Handle)
	variants := payload.Variants

	if len(variants) == 0 {
		product, err := s.fetchProduct(ctx, payload)
		if err != nil {
			return nil, err
		}
		if product != nil {
			if handle == "" {
				handle = strings.ToLower(product.Handle)
			}
			variants = product.Variants
		}
	}

	out := &Outcome{Handle: handle}
	if len(variants) == 0 {
		s.logger.Info("no variants after fetch for product %s", payload.ID)
		out.NoVariants = true
		return out, nil
	}
	if s.Excluded(handle) {
		s.logger.Info("product excluded by handle: %s", handle)
		out.Excluded = true
		return out, nil
	}

	discounted, standard := Partition(variants)
	out.RebajasCount = len(discounted)
	out.GeneralCount = len(standard)

	out.Result = s.reconciler.Reconcile(ctx, s.assignments(discounted, standard))
	s.logger.Info("product %s assigned: rebajas=%d general=%d calls=%d ok=%t",
		handle, out.RebajasCount, out.GeneralCount, out.Result.Calls(), out.Result.OK())
	return out, nil
}

func (s *Syncer) assignments(discounted, standard []string) []Assignment {
	rebajas := Assignment{ProfileID: s.opts.RebajasProfileID, ToAssociate: discounted}
	general := Assignment{ProfileID: s.opts.GeneralProfileID, ToAssociate: standard}
	if s.opts.ExplicitDissociate {
		rebajas.ToDissociate = standard
		general.ToDissociate = discounted
	}

	var out []Assignment
	for _, a := range []Assignment{rebajas, general} {
		if a.ProfileID == "" || len(a.ToAssociate)+len(a.ToDissociate) == 0 {
			continue
		}
		out = append(out, a)
	}
	return out
}

// fetchProduct tries the REST read first and the GraphQL read second. It
// returns nil when the payload carries no usable product id.
func (s *Syncer) fetchProduct(ctx context.Context, payload *shopify.WebhookPayload) (*shopify.Product, error) {
	productID := shopify.NumericID(payload.ID.String())
	if productID == "" {
		productID = shopify.NumericID(payload.AdminGraphQLAPIID)
	}
	if productID == "" {
		return nil, nil
	}

	product, restErr := s.source.GetProduct(ctx, productID)
	if restErr == nil && len(product.Variants) > 0 {
		s.logger.Info("webhook without variants; fetched %d via REST", len(product.Variants))
		return product, nil
	}
	if restErr != nil {
		s.logger.Warn("REST product fetch failed for %s: %v", productID, restErr)
	}

	gqlProduct, gqlErr := s.source.ProductWithVariants(ctx, shopify.GID("Product", productID))
	if gqlErr != nil {
		if restErr != nil {
			return nil, fmt.Errorf("product fetch failed: %w", errors.Join(restErr, gqlErr))
		}
		s.logger.Warn("GraphQL product fetch failed for %s: %v", productID, gqlErr)
		return product, nil
	}
	if len(gqlProduct.Variants) > 0 {
		s.logger.Info("webhook without variants; fetched %d via GraphQL", len(gqlProduct.Variants))
	}
	if gqlProduct.Handle == "" && product != nil {
		gqlProduct.Handle = product.Handle
	}
	return gqlProduct, nil
}

// AssignOutcome is the result of a single-variant assignment.
type AssignOutcome struct {
	Handle  string
	Skipped bool
	Result  *Result
}

// AssignVariant associates one variant with profileID unless its product is excluded.
func (s *Syncer) AssignVariant(ctx context.Context, variantGID, profileID string) (*AssignOutcome, error) {
	handle, err := s.source.ProductVariantHandle(ctx, variantGID)
	if err != nil {
		return nil, err
	}
	if handle == "" {
		return nil, ErrHandleNotFound
	}

	out := &AssignOutcome{Handle: handle}
	if s.Excluded(handle) {
		out.Skipped = true
		return out, nil
	}

	out.Result = s.reconciler.Reconcile(ctx, []Assignment{{
		ProfileID:   profileID,
		ToAssociate: []string{variantGID},
	}})
	return out, out.Result.Err()
}
