package stripe

import "encoding/json"

// Expandable is a Stripe field that arrives either as a bare id string or,
// when the request expanded it, as a full object. The zero value means the
// field was absent or null.
type Expandable struct {
	ID   string
	Name string
}

func (e *Expandable) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.ID)
	}
	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.ID = obj.ID
	e.Name = obj.Name
	return nil
}

func (e Expandable) MarshalJSON() ([]byte, error) {
	if e.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(e.ID)
}

// Event is a webhook envelope. Data.Object is kept raw because its shape
// depends on Type; only subscription events are decoded further.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Webhook event types this service reconciles. Everything else is
// acknowledged and ignored so new provider event types never turn into
// delivery failures.
const (
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

type CheckoutSession struct {
	ID                string     `json:"id"`
	URL               string     `json:"url"`
	Customer          Expandable `json:"customer"`
	Subscription      Expandable `json:"subscription"`
	ClientReferenceID string     `json:"client_reference_id"`
}

type Subscription struct {
	ID       string     `json:"id"`
	Status   string     `json:"status"`
	Customer Expandable `json:"customer"`
	Items    struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
}

type SubscriptionItem struct {
	Price *Price `json:"price"`
	Plan  *Plan  `json:"plan"`
}

type Price struct {
	ID         string     `json:"id"`
	Product    Expandable `json:"product"`
	UnitAmount int64      `json:"unit_amount"`
	Currency   string     `json:"currency"`
	Type       string     `json:"type"`
	Recurring  *Recurring `json:"recurring"`
}

type Recurring struct {
	Interval        string `json:"interval"`
	TrialPeriodDays int64  `json:"trial_period_days"`
}

// Plan is the deprecated pre-2020 shape that older API versions attach to
// subscription items alongside (or instead of) price.
type Plan struct {
	Product string `json:"product"`
	Name    string `json:"name"`
}

type Product struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	DefaultPrice Expandable `json:"default_price"`
}

type BillingPortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PlanDetails resolves the product id and plan name from the subscription's
// first item. The price's product wins (expanded name when available); the
// deprecated plan fields are the fallback for older API versions. Items
// beyond the first are ignored: this service assumes single-price
// subscriptions.
func (s *Subscription) PlanDetails() (productID, planName string) {
	if len(s.Items.Data) == 0 {
		return "", ""
	}
	item := s.Items.Data[0]
	if item.Price != nil && item.Price.Product.ID != "" {
		productID = item.Price.Product.ID
		planName = item.Price.Product.Name
	}
	if item.Plan != nil {
		if productID == "" {
			productID = item.Plan.Product
		}
		if planName == "" {
			planName = item.Plan.Name
		}
	}
	return productID, planName
}
