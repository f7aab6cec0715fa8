package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const maxWebhookBytes = 64 << 10

// TwilioSignature computes the X-Twilio-Signature value for a form POST to
// fullURL: base64 HMAC-SHA1 over the URL followed by each parameter name
// and value, names sorted.
func TwilioSignature(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		vals := append([]string(nil), form[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			b.WriteString(k)
			b.WriteString(v)
		}
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// RequireTwilioSignature rejects POSTs whose X-Twilio-Signature does not
// match. publicURL, when set, replaces the scheme and host seen by the
// server. An empty authToken rejects every POST.
func RequireTwilioSignature(authToken, publicURL string, next http.Handler) http.Handler {
	publicURL = strings.TrimRight(publicURL, "/")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		got := r.Header.Get("X-Twilio-Signature")
		want := TwilioSignature(authToken, webhookURL(r, publicURL), r.PostForm)
		if authToken == "" || got == "" || !hmac.Equal([]byte(got), []byte(want)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid webhook signature", "code": "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func webhookURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return publicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
