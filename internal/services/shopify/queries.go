package shopify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const variantHandleQuery = `
query VariantHandle($id: ID!) {
	productVariant(id: $id) {
		id
		product { id handle title }
	}
}`

// ProductVariantHandle resolves the handle of the product owning a variant.
// An unknown variant yields an empty handle.
func (c *Client) ProductVariantHandle(ctx context.Context, variantGID string) (string, error) {
	var data struct {
		ProductVariant *struct {
			ID      string `json:"id"`
			Product struct {
				ID     string `json:"id"`
				Handle string `json:"handle"`
				Title  string `json:"title"`
			} `json:"product"`
		} `json:"productVariant"`
	}
	if err := c.Run(ctx, variantHandleQuery, map[string]interface{}{"id": variantGID}, &data); err != nil {
		return "", err
	}
	if data.ProductVariant == nil {
		return "", nil
	}
	return data.ProductVariant.Product.Handle, nil
}

const productVariantsQuery = `
query ProductVariants($id: ID!, $after: String) {
	product(id: $id) {
		id
		handle
		variants(first: 250, after: $after) {
			nodes { id price compareAtPrice }
			pageInfo { hasNextPage endCursor }
		}
	}
}`

const maxVariantPages = 20

// ProductWithVariants is the GraphQL counterpart of GetProduct. Variant ids
// come back as gids and are stored in AdminGraphQLAPIID. All variant pages
// are read.
func (c *Client) ProductWithVariants(ctx context.Context, productGID string) (*Product, error) {
	var product *Product
	var after interface{}
	for page := 0; ; page++ {
		if page >= maxVariantPages {
			return nil, fmt.Errorf("product %s has more than %d variant pages", productGID, maxVariantPages)
		}

		var data struct {
			Product *struct {
				ID       string `json:"id"`
				Handle   string `json:"handle"`
				Variants struct {
					Nodes []struct {
						ID             string     `json:"id"`
						Price          FlexString `json:"price"`
						CompareAtPrice FlexString `json:"compareAtPrice"`
					} `json:"nodes"`
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
				} `json:"variants"`
			} `json:"product"`
		}
		vars := map[string]interface{}{"id": productGID, "after": after}
		if err := c.Run(ctx, productVariantsQuery, vars, &data); err != nil {
			return nil, err
		}
		if data.Product == nil {
			if product == nil {
				return &Product{}, nil
			}
			return nil, fmt.Errorf("product %s disappeared while paging variants", productGID)
		}

		if product == nil {
			product = &Product{
				Handle:            data.Product.Handle,
				AdminGraphQLAPIID: data.Product.ID,
			}
		}
		for _, node := range data.Product.Variants.Nodes {
			product.Variants = append(product.Variants, Variant{
				AdminGraphQLAPIID: node.ID,
				Price:             node.Price,
				CompareAtPrice:    node.CompareAtPrice,
			})
		}

		info := data.Product.Variants.PageInfo
		if !info.HasNextPage || info.EndCursor == "" {
			return product, nil
		}
		after = info.EndCursor
	}
}

const tagsAddMutation = `
mutation tagsAdd($id: ID!, $tags: [String!]!) {
	tagsAdd(id: $id, tags: $tags) {
		node { id }
		userErrors { field message }
	}
}`

// AddCustomerTag adds tag to the customer and returns the tagged node id.
func (c *Client) AddCustomerTag(ctx context.Context, customerGID, tag string) (string, error) {
	customerGID = strings.TrimSpace(customerGID)
	tag = strings.TrimSpace(tag)
	if customerGID == "" || tag == "" {
		return "", errors.New("customer id and tag are required")
	}

	var data struct {
		TagsAdd struct {
			Node *struct {
				ID string `json:"id"`
			} `json:"node"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"tagsAdd"`
	}
	vars := map[string]interface{}{
		"id":   customerGID,
		"tags": []string{tag},
	}
	if err := c.Run(ctx, tagsAddMutation, vars, &data); err != nil {
		return "", err
	}
	if err := userErrorsToError("tagsAdd", data.TagsAdd.UserErrors); err != nil {
		return "", err
	}
	if data.TagsAdd.Node == nil {
		return "", nil
	}
	return data.TagsAdd.Node.ID, nil
}

var nonDigits = regexp.MustCompile(`\D`)

// NumericID strips everything but digits: "gid://shopify/Product/42" -> "42".
func NumericID(id string) string {
	return nonDigits.ReplaceAllString(id, "")
}

// GID builds a global id for resource from a numeric or already-global id.
func GID(resource, id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	digits := NumericID(id)
	if digits == "" {
		return ""
	}
	return fmt.Sprintf("gid://shopify/%s/%s", resource, digits)
}
