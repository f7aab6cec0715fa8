package utils

import "fmt"

// Server-side strings for the few places the API talks to people directly:
// health checks, concern labels and the WhatsApp wizard.

var translations = map[string]map[string]string{
	"en": {
		"health.ok": "ok",

		"concern.no_reports": "No reports",
		"concern.low":        "Low concern",
		"concern.moderate":   "Moderate concern",
		"concern.high":       "High concern",
		"concern.severe":     "Severe concern",

		"wizard.menu":            "Scamwatch\n1. Check a number, paybill or website\n2. Report a scam\nReply with 1 or 2. Send 0 at any time for this menu.",
		"wizard.ask_identifier":  "Send the phone number, paybill, till, website or company name.",
		"wizard.ask_type":        "What kind of scam was it?\n%s",
		"wizard.ask_description": "Describe what happened (at least 10 characters).",
		"wizard.ask_amount":      "How much did you lose in KES? Send 0 if nothing.",
		"wizard.confirm":         "Report %s (%s)?\n%s\nReply YES to submit or NO to cancel.",
		"wizard.submitted":       "Thank you. Your report %s was received.",
		"wizard.cancelled":       "Cancelled. Send any message to start again.",
		"wizard.invalid":         "Sorry, I did not understand that.",
		"wizard.check_result":    "%s: %s (%d reports, %d corroborated).",
		"wizard.failed":          "Sorry, something went wrong: %s",
	},
	"sw": {
		"health.ok": "sawa",

		"concern.no_reports": "Hakuna ripoti",
		"concern.low":        "Wasiwasi mdogo",
		"concern.moderate":   "Wasiwasi wa wastani",
		"concern.high":       "Wasiwasi mkubwa",
		"concern.severe":     "Hatari kubwa",

		"wizard.menu":            "Scamwatch\n1. Kagua namba, paybill au tovuti\n2. Ripoti utapeli\nJibu 1 au 2. Tuma 0 wakati wowote kurudi hapa.",
		"wizard.ask_identifier":  "Tuma namba ya simu, paybill, till, tovuti au jina la kampuni.",
		"wizard.ask_type":        "Ni aina gani ya utapeli?\n%s",
		"wizard.ask_description": "Eleza kilichotokea (angalau herufi 10).",
		"wizard.ask_amount":      "Ulipoteza KES ngapi? Tuma 0 kama hakuna.",
		"wizard.confirm":         "Ripoti %s (%s)?\n%s\nJibu NDIO kutuma au HAPANA kughairi.",
		"wizard.submitted":       "Asante. Ripoti yako %s imepokelewa.",
		"wizard.cancelled":       "Imeghairiwa. Tuma ujumbe wowote kuanza upya.",
		"wizard.invalid":         "Samahani, sikuelewa.",
		"wizard.check_result":    "%s: %s (ripoti %d, %d zimethibitishwa).",
		"wizard.failed":          "Samahani, kuna tatizo: %s",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}

// Tf formats the translated string for key with args.
func Tf(locale, key string, args ...any) string {
	return fmt.Sprintf(T(locale, key), args...)
}
