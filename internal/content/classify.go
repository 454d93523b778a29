// Package content maps raw decoded QR text to a semantic content kind and
// its associated user action. Classification is pure so the same rules serve
// both capture-time hints and history rendering.
package content

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind is the semantic category of a decoded payload.
type Kind string

const (
	URL   Kind = "url"
	Email Kind = "email"
	Phone Kind = "phone"
	SMS   Kind = "sms"
	WiFi  Kind = "wifi"
	Geo   Kind = "geo"
	Text  Kind = "text"
)

// Classification describes how a payload should be presented and, when
// actionable, the external target to open.
type Classification struct {
	Kind       Kind   `json:"kind"`
	Label      string `json:"label"`
	Icon       string `json:"icon"`
	Actionable bool   `json:"actionable"`
	Action     string `json:"action,omitempty"`
}

// Optional leading +, then digits with the usual separators. Requires at
// least one digit so bare punctuation never reads as a phone number.
var phoneShape = regexp.MustCompile(`^\+?[0-9()\s-]*[0-9][0-9()\s-]*$`)

// Classify maps a decoded payload to its classification. It is total and
// deterministic: rules are evaluated in a fixed precedence and the first
// match wins, with plain text as the fallback. The scanner-reported
// symbology label is accepted for signature parity but carries no
// classification signal.
func Classify(data, _ string) Classification {
	lower := strings.ToLower(data)

	switch {
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return Classification{Kind: URL, Label: "Website", Icon: "link", Actionable: true, Action: data}

	case looksLikeEmail(data):
		return Classification{Kind: Email, Label: "Email Address", Icon: "email", Actionable: true, Action: "mailto:" + data}

	case strings.HasPrefix(lower, "tel:"):
		return Classification{Kind: Phone, Label: "Phone Number", Icon: "phone", Actionable: true, Action: data}

	case phoneShape.MatchString(data):
		return Classification{Kind: Phone, Label: "Phone Number", Icon: "phone", Actionable: true, Action: "tel:" + data}

	case strings.HasPrefix(lower, "sms:"):
		return Classification{Kind: SMS, Label: "Text Message", Icon: "sms", Actionable: true, Action: data}

	case strings.HasPrefix(lower, "wifi:"):
		return Classification{Kind: WiFi, Label: "Wi-Fi Network", Icon: "wifi"}

	case strings.HasPrefix(lower, "geo:") || looksLikeMapsURL(lower):
		return Classification{Kind: Geo, Label: "Location", Icon: "place", Actionable: true, Action: data}
	}

	return Classification{Kind: Text, Label: "Plain Text", Icon: "text-fields"}
}

func looksLikeEmail(data string) bool {
	if !strings.Contains(data, "@") || !strings.Contains(data, ".") {
		return false
	}
	return strings.IndexFunc(data, unicode.IsSpace) == -1
}

func looksLikeMapsURL(lower string) bool {
	return strings.Contains(lower, "maps.google.") ||
		strings.Contains(lower, "maps.apple.com") ||
		strings.Contains(lower, "goo.gl/maps")
}
