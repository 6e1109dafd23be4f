package stripe

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		SecretKey:       "sk_test_123",
		WebhookSecret:   "whsec_test",
		SuccessURL:      "http://localhost/api/stripe/checkout?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       "http://localhost/pricing",
		PortalReturnURL: "http://localhost/dashboard",
	}, WithAPIBase(srv.URL))
}

func TestGetBuildsRequest(t *testing.T) {
	var gotPath, gotAuth, gotVersion string
	var gotExpand []string
	var gotActive string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Stripe-Version")
		gotExpand = r.URL.Query()["expand[]"]
		gotActive = r.URL.Query().Get("active")
		w.Write([]byte(`{"data":[]}`))
	})

	if _, err := client.ListActiveRecurringPrices(); err != nil {
		t.Fatalf("list prices: %v", err)
	}

	if gotPath != "/prices" {
		t.Errorf("path = %q, want %q", gotPath, "/prices")
	}
	if gotAuth != "Bearer sk_test_123" {
		t.Errorf("authorization = %q, want bearer secret key", gotAuth)
	}
	if gotVersion == "" {
		t.Error("expected pinned Stripe-Version header")
	}
	if gotActive != "true" {
		t.Errorf("active = %q, want %q", gotActive, "true")
	}
	if len(gotExpand) != 1 || gotExpand[0] != "data.product" {
		t.Errorf("expand[] = %v, want [data.product]", gotExpand)
	}
}

func TestGetRepeatedExpandParams(t *testing.T) {
	var gotExpand []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotExpand = r.URL.Query()["expand[]"]
		w.Write([]byte(`{"id":"cs_123"}`))
	})

	sess, err := client.RetrieveCheckoutSession("cs_123")
	if err != nil {
		t.Fatalf("retrieve session: %v", err)
	}
	if sess.ID != "cs_123" {
		t.Errorf("session id = %q, want %q", sess.ID, "cs_123")
	}
	if len(gotExpand) != 2 || gotExpand[0] != "customer" || gotExpand[1] != "subscription" {
		t.Errorf("expand[] = %v, want [customer subscription]", gotExpand)
	}
}

func TestGetNon2xxReturnsRequestError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"card declined"}}`))
	})

	_, err := client.RetrieveSubscription("sub_1")
	if err == nil {
		t.Fatal("expected error")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %T: %v", err, err)
	}
	if reqErr.Status != http.StatusPaymentRequired {
		t.Errorf("status = %d, want %d", reqErr.Status, http.StatusPaymentRequired)
	}
	if reqErr.Path != "subscriptions/sub_1" {
		t.Errorf("path = %q, want %q", reqErr.Path, "subscriptions/sub_1")
	}
	if reqErr.Body == "" {
		t.Error("expected response body captured on error")
	}
}

func TestPostFormEncodesBody(t *testing.T) {
	var gotContentType string
	var gotForm map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"cs_123","url":"https://checkout.stripe.com/c/pay/cs_123"}`))
	})

	sess, err := client.CreateCheckoutSession("price_123", "cus_1", "user_1")
	if err != nil {
		t.Fatalf("create checkout session: %v", err)
	}

	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content-type = %q, want form-urlencoded", gotContentType)
	}
	if got := gotForm["line_items[0][price]"]; len(got) != 1 || got[0] != "price_123" {
		t.Errorf("line_items[0][price] = %v, want [price_123]", got)
	}
	if got := gotForm["mode"]; len(got) != 1 || got[0] != "subscription" {
		t.Errorf("mode = %v, want [subscription]", got)
	}
	if got := gotForm["client_reference_id"]; len(got) != 1 || got[0] != "user_1" {
		t.Errorf("client_reference_id = %v, want [user_1]", got)
	}
	if got := gotForm["customer"]; len(got) != 1 || got[0] != "cus_1" {
		t.Errorf("customer = %v, want [cus_1]", got)
	}
	if sess.URL != "https://checkout.stripe.com/c/pay/cs_123" {
		t.Errorf("url = %q, want checkout url", sess.URL)
	}
}

func TestCreateCheckoutSessionOmitsEmptyCustomer(t *testing.T) {
	var gotForm map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"cs_123","url":"https://checkout.stripe.com"}`))
	})

	if _, err := client.CreateCheckoutSession("price_123", "", "user_1"); err != nil {
		t.Fatalf("create checkout session: %v", err)
	}
	if _, ok := gotForm["customer"]; ok {
		t.Error("expected empty customer to be omitted from form")
	}
}

func TestCreateBillingPortalSession(t *testing.T) {
	var gotPath string
	var gotForm map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"bps_1","url":"https://billing.stripe.com/p/session"}`))
	})

	sess, err := client.CreateBillingPortalSession("cus_1")
	if err != nil {
		t.Fatalf("create portal session: %v", err)
	}
	if gotPath != "/billing_portal/sessions" {
		t.Errorf("path = %q, want %q", gotPath, "/billing_portal/sessions")
	}
	if got := gotForm["customer"]; len(got) != 1 || got[0] != "cus_1" {
		t.Errorf("customer = %v, want [cus_1]", got)
	}
	if got := gotForm["return_url"]; len(got) != 1 || got[0] != "http://localhost/dashboard" {
		t.Errorf("return_url = %v, want portal return url", got)
	}
	if sess.URL != "https://billing.stripe.com/p/session" {
		t.Errorf("url = %q, want portal url", sess.URL)
	}
}

func TestListActiveProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"prod_1","name":"Base","description":"Base subscription plan","default_price":"price_1"},
			{"id":"prod_2","name":"Plus","description":"Plus subscription plan","default_price":{"id":"price_2"}}
		]}`))
	})

	products, err := client.ListActiveProducts()
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].DefaultPrice.ID != "price_1" {
		t.Errorf("default price = %q, want %q", products[0].DefaultPrice.ID, "price_1")
	}
	if products[1].DefaultPrice.ID != "price_2" {
		t.Errorf("expanded default price = %q, want %q", products[1].DefaultPrice.ID, "price_2")
	}
}
