package llm

import (
	"fmt"
	"strings"
)

const extractionMaxChars = 12000

// BuildExtractionPrompt asks for the fixed purchase-order JSON shape with null
// for anything the document doesn't carry.
func BuildExtractionPrompt(text string) []ChatMessage {
	if len(text) > extractionMaxChars {
		text = text[:extractionMaxChars] + "\n...(truncated)"
	}

	system := strings.Join([]string{
		"You are a purchase order data extraction expert.",
		"Extract structured data from purchase order documents and return it as JSON.",
		"Return ONLY the JSON object, no other text.",
		"Use null for any field that cannot be found.",
		"Dates must be ISO-8601 (YYYY-MM-DD). Currency must be a 3-letter ISO 4217 code.",
		"The amount must be a number with no currency symbols.",
	}, " ")

	user := fmt.Sprintf(`Extract purchase order information from the following text and return it as a JSON object with exactly this shape:

{
  "poNumber": "Purchase Order number/ID",
  "supplier": "Supplier/Vendor name",
  "buyer": "Buyer/Customer name or company",
  "date": "Order date in YYYY-MM-DD format",
  "amount": "Total amount as a number",
  "currency": "Currency code (e.g., USD, EUR, GBP)",
  "lineItems": [
    {
      "description": "Item description",
      "quantity": "Quantity as number",
      "unitPrice": "Unit price as number",
      "totalPrice": "Line total as number"
    }
  ]
}

Text to analyze:
"""
%s
"""`, text)

	return []ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// BuildClassifierPrompt asks for a strict true/false PO-relevance decision.
func BuildClassifierPrompt(subject, from string, attachmentNames []string) []ChatMessage {
	user := fmt.Sprintf(`Analyze this email to determine if it contains a Purchase Order or is related to purchase order processing.

Email Subject: %q
Email From: %q
Attachment Count: %d
Attachment Names: %s

Consider these indicators:
- Subject contains words like: PO, Purchase Order, Order, Invoice, Quote, Procurement
- Sender is likely a vendor, supplier, or procurement department
- Attachments are PDFs, images, or documents that might contain purchase orders

Return only "true" if this email likely contains a purchase order or is related to purchase order processing, otherwise return "false".

Response (true/false only):`, subject, from, len(attachmentNames), strings.Join(attachmentNames, ", "))

	return []ChatMessage{
		{Role: "system", Content: "You are an email classifier. Respond with exactly \"true\" or \"false\" and nothing else."},
		{Role: "user", Content: user},
	}
}
