package shipping

import (
	"fmt"

	"shipsync/internal/services/shopify"
)

// MutationShape is one of the delivery-profile mutation forms the Admin API
// has accepted over time. Shapes are tried in chain order.
type MutationShape int

const (
	ShapeModern MutationShape = iota
	ShapeLegacy
	ShapeLegacyProfileItems
)

var shapeChain = []MutationShape{ShapeModern, ShapeLegacy, ShapeLegacyProfileItems}

func (s MutationShape) String() string {
	switch s {
	case ShapeModern:
		return "modern"
	case ShapeLegacy:
		return "legacy"
	case ShapeLegacyProfileItems:
		return "legacy_profile_items"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Direction says whether a batch adds variants to a profile or removes them.
type Direction string

const (
	Associate  Direction = "associate"
	Dissociate Direction = "dissociate"
)

const profileUpdateMutation = `
mutation deliveryProfileUpdate($id: ID!, $profile: DeliveryProfileInput!) {
	deliveryProfileUpdate(id: $id, profile: $profile) {
		profile { id }
		userErrors { field message }
	}
}`

const assignProductsMutation = `
mutation AssignToProfile($profileId: ID!, $variantIds: [ID!]!) {
	deliveryProfileAssignProducts(profileId: $profileId, productVariantIds: $variantIds) {
		userErrors { field message }
	}
}`

type mutation struct {
	query string
	vars  map[string]interface{}
	field string
}

// build renders the mutation for one batch. ok is false when the shape has
// no way to express dir.
func (s MutationShape) build(profileID string, dir Direction, ids []string) (m mutation, ok bool) {
	switch s {
	case ShapeModern:
		key := "variantsToAssociate"
		if dir == Dissociate {
			key = "variantsToDissociate"
		}
		return mutation{
			query: profileUpdateMutation,
			vars: map[string]interface{}{
				"id":      profileID,
				"profile": map[string]interface{}{key: ids},
			},
			field: "deliveryProfileUpdate",
		}, true
	case ShapeLegacy:
		if dir != Associate {
			return mutation{}, false
		}
		return mutation{
			query: assignProductsMutation,
			vars: map[string]interface{}{
				"profileId":  profileID,
				"variantIds": ids,
			},
			field: "deliveryProfileAssignProducts",
		}, true
	case ShapeLegacyProfileItems:
		if dir != Associate {
			return mutation{}, false
		}
		return mutation{
			query: profileUpdateMutation,
			vars: map[string]interface{}{
				"id": profileID,
				"profile": map[string]interface{}{
					"profileItemsToCreate": []interface{}{
						map[string]interface{}{
							"appliesTo": map[string]interface{}{
								"productVariantsToAssociate": ids,
							},
						},
					},
				},
			},
			field: "deliveryProfileUpdate",
		}, true
	}
	return mutation{}, false
}

// mutationPayload is the common part of every delivery-profile mutation result.
type mutationPayload struct {
	UserErrors []shopify.UserError `json:"userErrors"`
}
