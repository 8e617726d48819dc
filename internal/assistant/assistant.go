// Package assistant is the simulated shopping assistant: keyword-matched canned replies,
// product suggestions from the search engine and a simulated network delay.
package assistant

import (
	"strings"

	"storefront-workers/internal/models"
	"storefront-workers/internal/search"
)

// DefaultMaxSuggestions caps the products attached to a reply.
const DefaultMaxSuggestions = 3

type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentShipping Intent = "shipping"
	IntentReturns  Intent = "returns"
	IntentPayment  Intent = "payment"
	IntentOrder    Intent = "order"
	IntentProducts Intent = "products"
	IntentFallback Intent = "fallback"
)

// Reply is one assistant message.
type Reply struct {
	Intent   Intent           `json:"intent"`
	Text     string           `json:"reply"`
	Products []models.Product `json:"products"`
}

type rule struct {
	intent   Intent
	keywords []string
	text     string
}

// Checked in order; the first rule with a matching keyword wins.
var rules = []rule{
	{IntentShipping, []string{"shipping", "delivery", "deliver", "ship", "track"},
		"Standard shipping takes 3-5 business days and is free on orders over $50. You can track your package from the Orders page."},
	{IntentReturns, []string{"return", "returns", "refund", "exchange"},
		"You can return any item within 30 days of delivery. Start a return from the Orders page and we will email you a prepaid label."},
	{IntentPayment, []string{"payment", "pay", "card", "paypal", "checkout"},
		"We accept all major credit cards and PayPal. Your payment details are never stored on our servers."},
	{IntentOrder, []string{"order", "orders", "cancel", "status"},
		"You can see the status of every order on the Orders page. Orders can be cancelled until they ship."},
	{IntentGreeting, []string{"hi", "hello", "hey", "help"},
		"Hi! I can help you find products, check on an order, or answer questions about shipping and returns."},
}

const (
	productsText = "Here are a few products you might like:"
	fallbackText = "I'm not sure I understood that. Try asking about shipping, returns, payments, or name a product you're looking for."
)

// Words ignored when looking for product names.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "you": {}, "have": {}, "any": {}, "are": {}, "can": {},
	"what": {}, "with": {}, "show": {}, "some": {}, "looking": {}, "want": {}, "need": {},
	"find": {}, "me": {}, "do": {}, "a": {}, "an": {}, "i": {}, "my": {}, "is": {}, "of": {},
	"please": {}, "buy": {}, "get": {}, "like": {}, "about": {}, "your": {}, "there": {},
}

// Assistant is stateless and safe for concurrent use.
type Assistant struct {
	engine         search.Engine
	maxSuggestions int
}

func New(maxSuggestions int) *Assistant {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	return &Assistant{
		engine:         search.NewEngine(maxSuggestions),
		maxSuggestions: maxSuggestions,
	}
}

// Reply answers message. Products named in the message are attached regardless of intent.
func (a *Assistant) Reply(message string, catalog []models.Product) Reply {
	tokens := words(message)
	products := a.suggest(tokens, catalog)

	for _, r := range rules {
		if containsAny(tokens, r.keywords) {
			return Reply{Intent: r.intent, Text: r.text, Products: products}
		}
	}
	if len(products) > 0 {
		return Reply{Intent: IntentProducts, Text: productsText, Products: products}
	}
	return Reply{Intent: IntentFallback, Text: fallbackText, Products: products}
}

// suggest searches the whole message first, then each remaining word, and merges the
// hits in that order without duplicates.
func (a *Assistant) suggest(words []string, catalog []models.Product) []models.Product {
	out := []models.Product{}
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stopWords[w]; skip || len(w) < 3 || isKeyword(w) {
			continue
		}
		terms = append(terms, w)
	}
	if len(terms) == 0 {
		return out
	}

	seen := make(map[string]struct{})
	add := func(res search.Result) {
		for _, p := range res.Products {
			if len(out) == a.maxSuggestions {
				return
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}

	add(a.engine.Suggest(strings.Join(terms, " "), catalog))
	for _, term := range terms {
		add(a.engine.Suggest(term, catalog))
	}
	return out
}

func words(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})
}

func containsAny(words, keywords []string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}

func isKeyword(w string) bool {
	for _, r := range rules {
		for _, k := range r.keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}
