// Command stripe-seed creates the Base and Plus products with monthly
// recurring prices in the configured Stripe account.
//
// Usage: STRIPE_SECRET_KEY=sk_test_... go run ./cmd/stripe-seed
package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"

	"github.com/dukerupert/subsync/internal/stripe"
)

type plan struct {
	name        string
	description string
	unitAmount  string
}

func main() {
	godotenv.Load()

	secretKey := os.Getenv("STRIPE_SECRET_KEY")
	if secretKey == "" {
		fmt.Fprintln(os.Stderr, "STRIPE_SECRET_KEY is required")
		os.Exit(1)
	}

	client := stripe.NewClient(stripe.Config{SecretKey: secretKey})

	plans := []plan{
		{name: "Base", description: "Base subscription plan", unitAmount: "800"},
		{name: "Plus", description: "Plus subscription plan", unitAmount: "1200"},
	}

	fmt.Println("Creating Stripe products and prices...")
	for _, p := range plans {
		var product struct {
			ID string `json:"id"`
		}
		err := client.PostForm("products", url.Values{
			"name":        {p.name},
			"description": {p.description},
			"active":      {"true"},
		}, &product)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create product %s: %v\n", p.name, err)
			os.Exit(1)
		}

		var price struct {
			ID string `json:"id"`
		}
		err = client.PostForm("prices", url.Values{
			"product":                      {product.ID},
			"unit_amount":                  {p.unitAmount},
			"currency":                     {"usd"},
			"recurring[interval]":          {"month"},
			"recurring[trial_period_days]": {"7"},
		}, &price)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create price for %s: %v\n", p.name, err)
			os.Exit(1)
		}

		fmt.Printf("- Product %s: %s, Price: %s\n", p.name, product.ID, price.ID)
	}
}
