package identifier

import (
	"encoding/hex"
	"net"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hasher derives one-way, keyed hashes of reporter contact details. Hashes
// are only ever compared for equality; the raw values are never stored.
type Hasher struct {
	key []byte
}

// NewHasher keys the hash with secret. BLAKE2b accepts keys up to 64 bytes;
// longer secrets are truncated.
func NewHasher(secret string) *Hasher {
	k := []byte(secret)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Hasher{key: k}
}

func (h *Hasher) sum(domain, value string) string {
	m, err := blake2b.New256(h.key)
	if err != nil {
		// only returned for keys over 64 bytes, which NewHasher prevents
		panic(err)
	}
	m.Write([]byte(domain))
	m.Write([]byte{0})
	m.Write([]byte(value))
	return hex.EncodeToString(m.Sum(nil))
}

// HashPhone normalizes a phone number and hashes it. Numbers that do not
// normalize are hashed as trimmed digits so they still compare consistently.
func (h *Hasher) HashPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p, err := NormalizePhone(raw)
	if err != nil {
		p = nonDigit.ReplaceAllString(raw, "")
		if p == "" {
			return ""
		}
	}
	return h.sum("phone", p)
}

// HashIP hashes a client address. Ports are dropped.
func (h *Hasher) HashIP(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if ip := net.ParseIP(addr); ip != nil {
		addr = ip.String()
	}
	return h.sum("ip", addr)
}
