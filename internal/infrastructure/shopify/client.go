package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

// Client talks to the Shopify admin REST API for one shop. Reward codes map
// to price rules with attached discount codes; access grants map to customer
// tags, which Shopify treats as free-form strings and need no remote create.
type Client struct {
	shopDomain string
	apiVersion string
	token      string
	httpClient *http.Client
}

func NewClient(shopDomain, apiVersion, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		shopDomain: shopDomain,
		apiVersion: apiVersion,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type priceRulePayload struct {
	PriceRule priceRule `json:"price_rule"`
}

type priceRule struct {
	ID                int64      `json:"id,omitempty"`
	Title             string     `json:"title"`
	TargetType        string     `json:"target_type"`
	TargetSelection   string     `json:"target_selection"`
	AllocationMethod  string     `json:"allocation_method"`
	ValueType         string     `json:"value_type"`
	Value             string     `json:"value"`
	CustomerSelection string     `json:"customer_selection"`
	StartsAt          time.Time  `json:"starts_at"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`

	EntitledProductIDs    []string `json:"entitled_product_ids,omitempty"`
	EntitledCollectionIDs []string `json:"entitled_collection_ids,omitempty"`

	PrerequisiteSubtotalRange *moneyRange `json:"prerequisite_subtotal_range,omitempty"`
}

type moneyRange struct {
	GreaterThanOrEqualTo string `json:"greater_than_or_equal_to"`
}

type discountCodePayload struct {
	DiscountCode discountCode `json:"discount_code"`
}

type discountCode struct {
	ID   int64  `json:"id,omitempty"`
	Code string `json:"code"`
}

func (c *Client) CreateDiscountCode(ctx context.Context, req *domain.DiscountCodeRequest) (*domain.ExternalResourceRef, error) {
	rule := priceRule{
		Title:             req.Code,
		TargetType:        "line_item",
		TargetSelection:   "all",
		AllocationMethod:  "across",
		ValueType:         "percentage",
		Value:             fmt.Sprintf("-%d.0", req.Percentage),
		CustomerSelection: "all",
		StartsAt:          req.StartsAt,
		EndsAt:            req.EndsAt,
	}
	if len(req.TargetProducts) > 0 || len(req.TargetCollections) > 0 {
		rule.TargetSelection = "entitled"
		rule.EntitledProductIDs = req.TargetProducts
		rule.EntitledCollectionIDs = req.TargetCollections
	}

	return c.createCodeResource(ctx, rule, req.Code, domain.ResourceDiscountCode)
}

func (c *Client) CreateShippingCode(ctx context.Context, req *domain.ShippingCodeRequest) (*domain.ExternalResourceRef, error) {
	rule := priceRule{
		Title:             req.Code,
		TargetType:        "shipping_line",
		TargetSelection:   "all",
		AllocationMethod:  "each",
		ValueType:         "percentage",
		Value:             "-100.0",
		CustomerSelection: "all",
		StartsAt:          req.StartsAt,
		EndsAt:            req.EndsAt,
	}
	if req.MinimumOrderAmount > 0 {
		rule.PrerequisiteSubtotalRange = &moneyRange{
			GreaterThanOrEqualTo: fmt.Sprintf("%.2f", req.MinimumOrderAmount),
		}
	}

	return c.createCodeResource(ctx, rule, req.Code, domain.ResourceShippingCode)
}

func (c *Client) createCodeResource(ctx context.Context, rule priceRule, code string, kind domain.ExternalResourceKind) (*domain.ExternalResourceRef, error) {
	var ruleResp priceRulePayload
	if err := c.do(ctx, http.MethodPost, "price_rules.json", priceRulePayload{PriceRule: rule}, &ruleResp); err != nil {
		return nil, err
	}
	ruleID := ruleResp.PriceRule.ID

	var codeResp discountCodePayload
	path := fmt.Sprintf("price_rules/%d/discount_codes.json", ruleID)
	if err := c.do(ctx, http.MethodPost, path, discountCodePayload{DiscountCode: discountCode{Code: code}}, &codeResp); err != nil {
		return nil, err
	}

	return &domain.ExternalResourceRef{
		Kind: kind,
		ID:   strconv.FormatInt(ruleID, 10),
		Code: codeResp.DiscountCode.Code,
	}, nil
}

// EnsureCustomerTag registers nothing remotely: Shopify customer tags exist
// once applied to a customer. The ref records the tag the membership job
// applies to qualifying customers.
func (c *Client) EnsureCustomerTag(ctx context.Context, tag string) (*domain.ExternalResourceRef, error) {
	return &domain.ExternalResourceRef{
		Kind: domain.ResourceCustomerTag,
		ID:   "tag:" + tag,
		Tag:  tag,
	}, nil
}

// ResourceStatus classifies the backing resource by its time window and
// remote presence; a missing price rule is deleted.
func (c *Client) ResourceStatus(ctx context.Context, ref *domain.ExternalResourceRef) (domain.ResourceStatus, error) {
	if ref.Kind == domain.ResourceCustomerTag {
		return domain.ResourceActive, nil
	}

	var resp priceRulePayload
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("price_rules/%s.json", ref.ID), nil, &resp)
	if err != nil {
		var apiErr *apiError
		if asAPIError(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return domain.ResourceDeleted, nil
		}
		return "", err
	}

	now := time.Now()
	rule := resp.PriceRule
	switch {
	case rule.EndsAt != nil && rule.EndsAt.Before(now):
		return domain.ResourceExpired, nil
	case rule.StartsAt.After(now):
		return domain.ResourceDisabled, nil
	default:
		return domain.ResourceActive, nil
	}
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("shopify api returned status %d: %s", e.StatusCode, e.Body)
}

func asAPIError(err error, target **apiError) bool {
	ae, ok := err.(*apiError)
	if ok {
		*target = ae
	}
	return ok
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	url := fmt.Sprintf("https://%s/admin/api/%s/%s", c.shopDomain, c.apiVersion, path)

	var reader *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return &apiError{StatusCode: resp.StatusCode, Body: buf.String()}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
