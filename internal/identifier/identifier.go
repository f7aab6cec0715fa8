// Package identifier normalizes the things people report (phone numbers,
// paybills, websites, ...) so that reports about the same target group
// together, and hashes reporter contact details for comparison.
package identifier

import (
	"errors"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

type Kind string

const (
	KindPhone   Kind = "phone"
	KindPaybill Kind = "paybill"
	KindTill    Kind = "till"
	KindWebsite Kind = "website"
	KindCompany Kind = "company"
	KindEmail   Kind = "email"
)

// ErrInvalidIdentifier is returned when raw input cannot be normalized for its kind.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var (
	nonDigit     = regexp.MustCompile(`[^0-9]`)
	phoneLike    = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{8,16}$`)
	shortCode    = regexp.MustCompile(`^[0-9]{5,7}$`)
	websiteLike  = regexp.MustCompile(`(?i)^(https?://)?([a-z0-9-]+\.)+[a-z]{2,}(/.*)?$`)
	kenyanMobile = regexp.MustCompile(`^254[17][0-9]{8}$`)
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindPhone, KindPaybill, KindTill, KindWebsite, KindCompany, KindEmail:
		return k, true
	}
	return "", false
}

// Detect guesses the kind of a raw identifier. Short numeric codes are
// treated as paybills; anything unrecognised is a company name.
func Detect(raw string) Kind {
	s := strings.TrimSpace(raw)
	switch {
	case strings.Contains(s, "@"):
		return KindEmail
	case shortCode.MatchString(s):
		return KindPaybill
	case phoneLike.MatchString(s):
		return KindPhone
	case websiteLike.MatchString(s):
		return KindWebsite
	default:
		return KindCompany
	}
}

// Normalize returns the canonical form of raw for kind. An empty kind is
// detected from raw.
func Normalize(kind Kind, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidIdentifier
	}
	if kind == "" {
		kind = Detect(raw)
	}
	switch kind {
	case KindPhone:
		return NormalizePhone(raw)
	case KindPaybill, KindTill:
		d := nonDigit.ReplaceAllString(raw, "")
		if !shortCode.MatchString(d) {
			return "", ErrInvalidIdentifier
		}
		return d, nil
	case KindWebsite:
		return normalizeWebsite(raw)
	case KindEmail:
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return "", ErrInvalidIdentifier
		}
		return strings.ToLower(addr.Address), nil
	case KindCompany:
		name := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
		if len(name) < 2 {
			return "", ErrInvalidIdentifier
		}
		return name, nil
	default:
		return "", ErrInvalidIdentifier
	}
}

// NormalizePhone converts Kenyan mobile numbers written as 07.., 01..,
// +254.. or 254.. to 254XXXXXXXXX.
func NormalizePhone(raw string) (string, error) {
	d := nonDigit.ReplaceAllString(raw, "")
	switch {
	case strings.HasPrefix(d, "254"):
	case strings.HasPrefix(d, "0") && len(d) == 10:
		d = "254" + d[1:]
	case len(d) == 9 && (d[0] == '7' || d[0] == '1'):
		d = "254" + d
	}
	if !kenyanMobile.MatchString(d) {
		return "", ErrInvalidIdentifier
	}
	return d, nil
}

func normalizeWebsite(raw string) (string, error) {
	s := raw
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return "", ErrInvalidIdentifier
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", ErrInvalidIdentifier
	}
	return root, nil
}
