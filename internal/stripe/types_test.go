package stripe

import (
	"encoding/json"
	"testing"
)

func TestExpandableUnmarshalString(t *testing.T) {
	var e Expandable
	if err := json.Unmarshal([]byte(`"cus_123"`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != "cus_123" {
		t.Errorf("id = %q, want %q", e.ID, "cus_123")
	}
	if e.Name != "" {
		t.Errorf("name = %q, want empty", e.Name)
	}
}

func TestExpandableUnmarshalObject(t *testing.T) {
	var e Expandable
	if err := json.Unmarshal([]byte(`{"id":"prod_1","name":"Plus"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != "prod_1" {
		t.Errorf("id = %q, want %q", e.ID, "prod_1")
	}
	if e.Name != "Plus" {
		t.Errorf("name = %q, want %q", e.Name, "Plus")
	}
}

func TestExpandableUnmarshalNull(t *testing.T) {
	var e Expandable
	if err := json.Unmarshal([]byte(`null`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != "" {
		t.Errorf("id = %q, want empty", e.ID)
	}
}

func TestExpandableAbsentField(t *testing.T) {
	var sess CheckoutSession
	if err := json.Unmarshal([]byte(`{"id":"cs_1"}`), &sess); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sess.Customer.ID != "" {
		t.Errorf("customer id = %q, want empty", sess.Customer.ID)
	}
}

func TestPlanDetailsFromPriceProductString(t *testing.T) {
	var sub Subscription
	payload := `{"id":"sub_1","status":"active","customer":"cus_1",
		"items":{"data":[{"price":{"id":"price_1","product":"prod_1"}}]}}`
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	productID, planName := sub.PlanDetails()
	if productID != "prod_1" {
		t.Errorf("product id = %q, want %q", productID, "prod_1")
	}
	if planName != "" {
		t.Errorf("plan name = %q, want empty", planName)
	}
}

func TestPlanDetailsFromExpandedProduct(t *testing.T) {
	var sub Subscription
	payload := `{"id":"sub_1","status":"active","customer":"cus_1",
		"items":{"data":[{"price":{"id":"price_1","product":{"id":"prod_1","name":"Plus"}}}]}}`
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	productID, planName := sub.PlanDetails()
	if productID != "prod_1" {
		t.Errorf("product id = %q, want %q", productID, "prod_1")
	}
	if planName != "Plus" {
		t.Errorf("plan name = %q, want %q", planName, "Plus")
	}
}

func TestPlanDetailsDeprecatedPlanFallback(t *testing.T) {
	var sub Subscription
	payload := `{"id":"sub_1","status":"active","customer":"cus_1",
		"items":{"data":[{"plan":{"product":"prod_legacy","name":"Legacy"}}]}}`
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	productID, planName := sub.PlanDetails()
	if productID != "prod_legacy" {
		t.Errorf("product id = %q, want %q", productID, "prod_legacy")
	}
	if planName != "Legacy" {
		t.Errorf("plan name = %q, want %q", planName, "Legacy")
	}
}

func TestPlanDetailsPlanNameFillsMissingProductName(t *testing.T) {
	var sub Subscription
	payload := `{"id":"sub_1","status":"active","customer":"cus_1",
		"items":{"data":[{"price":{"id":"price_1","product":"prod_1"},"plan":{"product":"prod_1","name":"Plus"}}]}}`
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	productID, planName := sub.PlanDetails()
	if productID != "prod_1" {
		t.Errorf("product id = %q, want %q", productID, "prod_1")
	}
	if planName != "Plus" {
		t.Errorf("plan name = %q, want %q", planName, "Plus")
	}
}

func TestPlanDetailsNoItems(t *testing.T) {
	var sub Subscription
	if err := json.Unmarshal([]byte(`{"id":"sub_1","status":"active","items":{"data":[]}}`), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	productID, planName := sub.PlanDetails()
	if productID != "" || planName != "" {
		t.Errorf("got (%q, %q), want empty", productID, planName)
	}
}

func TestPlanDetailsIgnoresExtraItems(t *testing.T) {
	var sub Subscription
	payload := `{"id":"sub_1","status":"active","customer":"cus_1",
		"items":{"data":[
			{"price":{"id":"price_1","product":{"id":"prod_1","name":"Plus"}}},
			{"price":{"id":"price_2","product":{"id":"prod_2","name":"Addon"}}}
		]}}`
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	productID, _ := sub.PlanDetails()
	if productID != "prod_1" {
		t.Errorf("product id = %q, want first item's %q", productID, "prod_1")
	}
}
