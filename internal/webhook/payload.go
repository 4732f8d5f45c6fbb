package webhook

// Typed webhook payloads, one per provider. Decoding into these at the
// boundary keeps the normalizer free of string sniffing over untyped maps.

// ShopifyOrderPayload is the Shopify order resource delivered on
// order/created, order/paid, order/fulfilled, order/cancelled and
// order/refunded topics.
type ShopifyOrderPayload struct {
	Type                string                `json:"type"`
	Event               string                `json:"event"`
	ID                  int64                 `json:"id"`
	OrderNumber         int64                 `json:"order_number"`
	Email               string                `json:"email"`
	TotalPrice          string                `json:"total_price"`
	Currency            string                `json:"currency"`
	FinancialStatus     string                `json:"financial_status"`
	FulfillmentStatus   string                `json:"fulfillment_status"`
	ExternalReferenceID string                `json:"external_reference_id"`
	LineItems           []ShopifyLineItem     `json:"line_items"`
	ShippingAddress     ShopifyAddress        `json:"shipping_address"`
	ShippingLines       []ShopifyShippingLine `json:"shipping_lines"`
}

type ShopifyLineItem struct {
	SKU      string `json:"sku"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type ShopifyAddress struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

type ShopifyShippingLine struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	Carrier        string `json:"carrier_identifier"`
}

// QikinkPayload carries fulfillment progress. The vendor reports the
// event name in either "event" or "status" depending on webhook version.
type QikinkPayload struct {
	ID                    string `json:"id"`
	Event                 string `json:"event"`
	Status                string `json:"status"`
	ExternalReferenceID   string `json:"external_reference_id"`
	ShopifyOrderID        string `json:"shopify_order_id"`
	TrackingNumber        string `json:"tracking_number"`
	TrackingURL           string `json:"tracking_url"`
	ShippingCarrier       string `json:"shipping_carrier"`
	EstimatedDeliveryDate string `json:"estimated_delivery_date"`
}

// RazorpayPayload is the legacy payment webhook envelope.
type RazorpayPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID string `json:"id"`
				// OrderID duplicates the provider order id on payment
				// events that omit the order entity.
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
				// Receipt is written by us at payment initiation and
				// carries the internal order id back.
				Receipt string `json:"receipt"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}
