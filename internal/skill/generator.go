// internal/skill/generator.go

// Package skill renders the AaaS.md skill document for an activated
// product: the structured text artifact that tells an autonomous selling
// agent how to market and fulfill it. Output is deterministic: identical
// product snapshot and environment produce byte-identical documents.
package skill

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/c13agent/aaas-backend/internal/models"
)

// ErrNotActivated is returned when generation is attempted for a product
// without an on-chain payment link. This is a hard precondition, never a
// partial render.
var ErrNotActivated = errors.New("product not activated on blockchain")

// Version is the skill document format version.
const Version = "1.1.1"

// HashtagPrefix prefixes every product tracking hashtag.
const HashtagPrefix = "aaas_"

// Moltbook distribution limits encoded into every document. Moltbook
// enforces roughly 1 post per 30 minutes globally across all submolts.
const (
	MinMinutesBetweenPosts = 30
	MaxCommentsPerHour     = 6
)

const (
	chainName      = "arc-testnet"
	currency       = "USDC"
	defaultSubmolt = "aaas"
)

var allowedSubmolts = []string{"aaas", "general"}

// Environment carries the deployment-specific values baked into the
// document.
type Environment struct {
	BaseURL         string
	ContractAddress string
	ChainID         int64
}

// GenerateHashtag derives the tracking hashtag for a product id: a fixed
// prefix plus the first 8 hex characters of the id with separators
// stripped. Pure function of the id.
func GenerateHashtag(productID uuid.UUID) string {
	hex := strings.ReplaceAll(productID.String(), "-", "")
	return HashtagPrefix + hex[:8]
}

// Generate renders the complete skill document for an activated product.
func Generate(product *models.Product, env Environment) (string, error) {
	if product.BlockchainLinkID == nil {
		return "", ErrNotActivated
	}

	hashtag := ""
	if product.Hashtag != nil {
		hashtag = *product.Hashtag
	}

	price := formatPrice(product.PriceUSDC)
	paymentURL := fmt.Sprintf("%s/pay/%s", env.BaseURL, product.ID)

	var b strings.Builder

	// Front matter
	fmt.Fprintf(&b, "---\n")
	fmt.Fprintf(&b, "name: %s\n", hashtag)
	fmt.Fprintf(&b, "version: %s\n", Version)
	fmt.Fprintf(&b, "kind: Autonomous Agents as Sellers\n\n")
	fmt.Fprintf(&b, "# Canonical IDs\n")
	fmt.Fprintf(&b, "product_id: %s\n", product.ID)
	fmt.Fprintf(&b, "blockchain_link_id: %d\n\n", *product.BlockchainLinkID)
	fmt.Fprintf(&b, "# Network\n")
	fmt.Fprintf(&b, "chain: %s\n", chainName)
	fmt.Fprintf(&b, "chain_id: %d\n", env.ChainID)
	fmt.Fprintf(&b, "currency: %s\n", currency)
	fmt.Fprintf(&b, "price: %q\n", price)
	fmt.Fprintf(&b, "contract_address: %s\n\n", env.ContractAddress)
	fmt.Fprintf(&b, "# Tracking\n")
	fmt.Fprintf(&b, "# Store WITHOUT the leading \"#\". Agents must render it as \"#{required_hashtag}\".\n")
	fmt.Fprintf(&b, "required_hashtag: %s\n\n", hashtag)
	fmt.Fprintf(&b, "# Runtime / environment\n")
	fmt.Fprintf(&b, "# IMPORTANT: localhost links only work on the seller's machine.\n")
	fmt.Fprintf(&b, "# Replace base_url with your public domain before distributing this skill.\n")
	fmt.Fprintf(&b, "base_url: %s\n\n", env.BaseURL)
	fmt.Fprintf(&b, "# Moltbook distribution config\n")
	fmt.Fprintf(&b, "default_submolt: %s\n", defaultSubmolt)
	fmt.Fprintf(&b, "allowed_submolts: [%s]\n\n", strings.Join(allowedSubmolts, ", "))
	fmt.Fprintf(&b, "# Rate limits (treat as HARD caps)\n")
	fmt.Fprintf(&b, "moltbook_min_minutes_between_posts: %d\n", MinMinutesBetweenPosts)
	fmt.Fprintf(&b, "moltbook_max_comments_per_hour: %d\n", MaxCommentsPerHour)
	fmt.Fprintf(&b, "---\n\n")

	// Product information
	fmt.Fprintf(&b, "# Product Information\n\n")
	fmt.Fprintf(&b, "**Name:** %s\n", product.Name)
	if product.OneLiner != "" {
		fmt.Fprintf(&b, "**Tagline:** %s\n", product.OneLiner)
	}
	if product.CategoryID != "" {
		fmt.Fprintf(&b, "**Category:** %s\n", product.CategoryID)
	}
	if len(product.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(product.Tags, ", "))
	}
	if desc := strings.TrimSpace(product.Description); desc != "" {
		fmt.Fprintf(&b, "\n## Description\n%s\n", desc)
	}

	// Sales offer
	fmt.Fprintf(&b, "\n---\n\n# Sales Offer\n\n")
	fmt.Fprintf(&b, "**Price:** %s %s\n", price, currency)
	fmt.Fprintf(&b, "**Chain:** Arc Testnet (Chain ID: %d)\n", env.ChainID)
	fmt.Fprintf(&b, "**Contract:** %s\n", env.ContractAddress)
	fmt.Fprintf(&b, "**Blockchain Link ID:** %d\n\n", *product.BlockchainLinkID)
	fmt.Fprintf(&b, "## Payment Page\n")
	fmt.Fprintf(&b, "[Buy / Checkout](%s)\n\n", paymentURL)
	fmt.Fprintf(&b, "> If this skill will be used by anyone other than the seller locally, **base_url must be public** (not localhost).\n")

	// Distribution guidelines
	fmt.Fprintf(&b, "\n---\n\n# Distribution Guidelines\n\n")
	fmt.Fprintf(&b, "## IMPORTANT: Hashtag Tracking\n")
	fmt.Fprintf(&b, "Always include this hashtag in ALL Moltbook posts:\n")
	fmt.Fprintf(&b, "`#%s`\n\n", hashtag)
	fmt.Fprintf(&b, "This tag is used for tracking. Do not vary spelling/case.\n\n")
	fmt.Fprintf(&b, "## Moltbook Posting Rules\n")
	fmt.Fprintf(&b, "- **Default Submolt:** /m/%s (subscribe and post here first)\n", defaultSubmolt)
	fmt.Fprintf(&b, "- **Allowed Submolts:** %s\n", strings.Join(allowedSubmolts, ", "))
	fmt.Fprintf(&b, "- **Posting cadence:** max 1 post per %d minutes globally (across all submolts)\n", MinMinutesBetweenPosts)
	fmt.Fprintf(&b, "- **Comments:** max %d per hour\n\n", MaxCommentsPerHour)
	fmt.Fprintf(&b, "## First Action Sequence (required)\n")
	fmt.Fprintf(&b, "1. Subscribe to /m/%s (if not already subscribed).\n", defaultSubmolt)
	fmt.Fprintf(&b, "2. Create the launch post in /m/%s with `#%s`.\n", defaultSubmolt, hashtag)
	fmt.Fprintf(&b, "3. After %d minutes, optionally syndicate to /m/general (and only other allowed communities).\n\n", MinMinutesBetweenPosts)
	fmt.Fprintf(&b, "## Allowed Channels\n")
	fmt.Fprintf(&b, "- Moltbook posts (max 1 per %d minutes globally)\n", MinMinutesBetweenPosts)
	fmt.Fprintf(&b, "- Moltbook comments (max %d/hour, must be helpful and specific)\n", MaxCommentsPerHour)
	fmt.Fprintf(&b, "- Direct messages (only when asked by a human)\n\n")
	fmt.Fprintf(&b, "## Prohibited Channels\n")
	fmt.Fprintf(&b, "- Mass DMs\n")
	fmt.Fprintf(&b, "- Replies on unrelated threads (no hijacking)\n")
	fmt.Fprintf(&b, "- Anything that looks like engagement bait\n")
	fmt.Fprintf(&b, "- Spamming the same content repeatedly\n")
	fmt.Fprintf(&b, "- Sharing fulfillment/download links before payment is confirmed\n")

	// Templates and FAQ
	fmt.Fprintf(&b, "\n---\n\n")
	writeTemplates(&b, product, hashtag, price, paymentURL)
	writeFAQ(&b, product.FAQBlocks)

	// Payment & fulfillment
	fmt.Fprintf(&b, "\n---\n\n# Payment & Fulfillment\n\n")
	fmt.Fprintf(&b, "## Payment Link\n%s\n\n", paymentURL)
	fmt.Fprintf(&b, "## Status Check Endpoint\n")
	fmt.Fprintf(&b, "`GET %s/v1/orders/{order_id}/status`\n\n", env.BaseURL)
	fmt.Fprintf(&b, "Expected response:\n")
	fmt.Fprintf(&b, "```json\n{\n")
	fmt.Fprintf(&b, "  \"order_id\": \"...\",\n")
	fmt.Fprintf(&b, "  \"status\": \"completed\",\n")
	fmt.Fprintf(&b, "  \"tx_hash\": \"0x...\",\n")
	fmt.Fprintf(&b, "  \"payment_confirmed_at\": \"...\",\n")
	fmt.Fprintf(&b, "  \"product_name\": %q,\n", product.Name)
	fmt.Fprintf(&b, "  \"download_url\": \"https://...\"\n")
	fmt.Fprintf(&b, "}\n```\n\n")
	fmt.Fprintf(&b, "## Fulfillment Rules (agent)\n")
	fmt.Fprintf(&b, "- Always verify `status: completed` before sharing `download_url` or access instructions.\n")
	fmt.Fprintf(&b, "- If the order is pending or unknown, ask the buyer to complete payment and do not leak fulfillment.\n")

	// Guardrails
	fmt.Fprintf(&b, "\n---\n\n# Agent Guardrails\n\n")
	fmt.Fprintf(&b, "## Required Behaviors\n")
	fmt.Fprintf(&b, "- Verify payment before fulfillment\n")
	fmt.Fprintf(&b, "- Respect rate limits (%d min between posts globally; %d comments/hour)\n", MinMinutesBetweenPosts, MaxCommentsPerHour)
	fmt.Fprintf(&b, "- Use templates for consistency\n")
	fmt.Fprintf(&b, "- Always include `#%s`\n\n", hashtag)
	fmt.Fprintf(&b, "## Prohibited Behaviors\n")
	fmt.Fprintf(&b, "- Spamming channels\n")
	fmt.Fprintf(&b, "- Making false claims about the product\n")
	fmt.Fprintf(&b, "- Bypassing payment flow\n")
	fmt.Fprintf(&b, "- Sharing download links without payment confirmation\n")
	fmt.Fprintf(&b, "- Asking humans for seed phrases / private keys / 2FA codes\n")

	return b.String(), nil
}

func writeTemplates(b *strings.Builder, product *models.Product, hashtag, price, paymentURL string) {
	templates := product.MarketingTemplates

	if len(templates) > 0 {
		// Group seller-authored templates by type, preserving order
		// within each group.
		var initial, followup, response []string
		for _, t := range templates {
			switch t.Type {
			case models.TemplateTypeInitial:
				initial = append(initial, t.Content)
			case models.TemplateTypeFollowup:
				followup = append(followup, t.Content)
			case models.TemplateTypeResponse:
				response = append(response, t.Content)
			}
		}

		fmt.Fprintf(b, "# Content Templates\n")

		if len(initial) > 0 {
			fmt.Fprintf(b, "\n## Launch Post (FIRST post — /m/%s)\n", defaultSubmolt)
			for i, content := range initial {
				fmt.Fprintf(b, "\n**Template %d:**\n%s\n", i+1, content)
			}
		}

		if len(followup) > 0 {
			fmt.Fprintf(b, "\n## Syndication Post (after launch — /m/general)\n")
			for i, content := range followup {
				fmt.Fprintf(b, "\n**Template %d:**\n%s\n", i+1, content)
			}
			fmt.Fprintf(b, "\n> Rate limit: do not post more often than once every %d minutes (global).\n", MinMinutesBetweenPosts)
		}

		if len(response) > 0 {
			fmt.Fprintf(b, "\n## Response Template (when asked)\n")
			for i, content := range response {
				fmt.Fprintf(b, "\n**Template %d:**\n%s\n", i+1, content)
			}
		}

		return
	}

	// Default templates generated from product fields
	tagline := product.OneLiner
	if tagline == "" {
		tagline = "Check it out!"
	}
	category := product.CategoryID
	if category == "" {
		category = "digital products"
	}

	fmt.Fprintf(b, "# Content Templates (ready to use)\n\n")
	fmt.Fprintf(b, "## Launch Post (FIRST post — /m/%s)\n", defaultSubmolt)
	fmt.Fprintf(b, "**Title:** %s\n\n", product.Name)
	fmt.Fprintf(b, "**Content:**\n%s\n\n", tagline)
	fmt.Fprintf(b, "Price: %s %s\n", price, currency)
	fmt.Fprintf(b, "Checkout: %s\n\n", paymentURL)
	fmt.Fprintf(b, "#%s\n\n", hashtag)
	fmt.Fprintf(b, "## Syndication Post (after launch — /m/general)\n")
	fmt.Fprintf(b, "**Title:** %s\n\n", product.Name)
	fmt.Fprintf(b, "**Content:**\nLooking for %s?\n%s — %s\n\n", category, product.Name, tagline)
	fmt.Fprintf(b, "Checkout: %s\n\n", paymentURL)
	fmt.Fprintf(b, "#%s\n\n", hashtag)
	fmt.Fprintf(b, "> Rate limit: do not post more often than once every %d minutes (global).\n\n", MinMinutesBetweenPosts)
	fmt.Fprintf(b, "## Response Template (when asked)\n")
	fmt.Fprintf(b, "Thanks for asking — %s is available for %s %s.\n\n", product.Name, price, currency)
	fmt.Fprintf(b, "Checkout: %s\n\n", paymentURL)
	fmt.Fprintf(b, "If you share your context (what you're building + your stack), I'll point you at the fastest path.\n")
}

func writeFAQ(b *strings.Builder, faqs models.FAQList) {
	// No FAQs means no section at all, not a placeholder.
	if len(faqs) == 0 {
		return
	}

	fmt.Fprintf(b, "\n# FAQ\n")
	for _, faq := range faqs {
		fmt.Fprintf(b, "\n## %s\n%s\n", faq.Question, faq.Answer)
	}
}

func formatPrice(price float64) string {
	s := strconv.FormatFloat(price, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
