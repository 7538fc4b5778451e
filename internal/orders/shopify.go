package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/gutterguard/inventory/internal/config"
)

const ordersQuery = `
query Orders($first: Int!, $after: String, $query: String!) {
  orders(first: $first, after: $after, query: $query, reverse: true) {
    edges {
      node {
        name
        createdAt
        displayFulfillmentStatus
        lineItems(first: 30) {
          edges {
            node {
              title
              variant { title }
              quantity
              sku
            }
          }
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

// ShopifyClient reads shipped orders from the GraphQL Admin API.
type ShopifyClient struct {
	endpoint   string
	token      string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewShopifyClient(cfg config.ShopifyConfig, httpClient *http.Client) *ShopifyClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	version := cfg.APIVersion
	if version == "" {
		version = "2024-01"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 50
	}
	perSec := cfg.RequestsPerSec
	if perSec <= 0 {
		perSec = 2
	}

	base := strings.TrimSuffix(cfg.StoreURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return &ShopifyClient{
		endpoint:   fmt.Sprintf("%s/admin/api/%s/graphql.json", base, version),
		token:      cfg.AccessToken,
		pageSize:   pageSize,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type ordersResponse struct {
	Data struct {
		Orders struct {
			Edges []struct {
				Node orderNode `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"orders"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type orderNode struct {
	Name                     string    `json:"name"`
	CreatedAt                time.Time `json:"createdAt"`
	DisplayFulfillmentStatus string    `json:"displayFulfillmentStatus"`
	LineItems                struct {
		Edges []struct {
			Node struct {
				Title   string `json:"title"`
				Variant *struct {
					Title string `json:"title"`
				} `json:"variant"`
				Quantity int    `json:"quantity"`
				SKU      string `json:"sku"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
}

func (n orderNode) order() Order {
	o := Order{
		Number:    strings.TrimPrefix(n.Name, "#"),
		CreatedAt: n.CreatedAt,
		Status:    n.DisplayFulfillmentStatus,
		LineItems: make([]LineItem, 0, len(n.LineItems.Edges)),
	}
	for _, e := range n.LineItems.Edges {
		item := LineItem{Title: e.Node.Title, Quantity: e.Node.Quantity, SKU: e.Node.SKU}
		if e.Node.Variant != nil {
			item.Variant = e.Node.Variant.Title
		}
		o.LineItems = append(o.LineItems, item)
	}
	return o
}

// FetchOrders pages through every shipped order since the given day.
func (c *ShopifyClient) FetchOrders(ctx context.Context, since time.Time) ([]Order, error) {
	filter := fmt.Sprintf("fulfillment_status:shipped created_at:>=%s", since.UTC().Format("2006-01-02"))

	var (
		all    []Order
		cursor string
	)
	for page := 1; ; page++ {
		vars := map[string]any{"first": c.pageSize, "query": filter}
		if cursor != "" {
			vars["after"] = cursor
		}

		resp, err := c.fetchPage(ctx, vars)
		if err != nil {
			return nil, fmt.Errorf("orders page %d: %w", page, err)
		}
		for _, e := range resp.Data.Orders.Edges {
			all = append(all, e.Node.order())
		}
		log.Debug().Int("page", page).Int("orders", len(all)).Msg("orders: fetched page")

		info := resp.Data.Orders.PageInfo
		if !info.HasNextPage || info.EndCursor == "" {
			break
		}
		cursor = info.EndCursor
	}
	return all, nil
}

func (c *ShopifyClient) fetchPage(ctx context.Context, vars map[string]any) (*ordersResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(graphQLRequest{Query: ordersQuery, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("shopify returned %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out ordersResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("shopify errors: %s", strings.Join(msgs, "; "))
	}
	return &out, nil
}
