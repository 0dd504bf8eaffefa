// Package worksection is a minimal client for the Worksection API,
// covering the project lookup the provisioning workflow needs.
//
// Worksection authenticates requests with a content hash rather than a
// header token: the caller serializes the query parameters in a fixed
// order, appends the shared API secret and takes the MD5 of the result
// (the provider's documented signing scheme, not a cryptographic
// protection). The hash is order-sensitive and validated byte-for-byte
// by the API, so parameters must not be reordered between signing and
// sending.
package worksection

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// Param is one query parameter. Params are kept as an ordered slice,
// not a map: the signature depends on serialization order.
type Param struct {
	Key   string
	Value string
}

// QueryString serializes params in the exact order supplied, with
// values percent-encoded.
func QueryString(params []Param) string {
	pairs := make([]string, 0, len(params))
	for _, p := range params {
		pairs = append(pairs, fmt.Sprintf("%s=%s", p.Key, url.QueryEscape(p.Value)))
	}
	return strings.Join(pairs, "&")
}

// Sign returns the hex-encoded MD5 of query + secret.
func Sign(query, secret string) string {
	sum := md5.Sum([]byte(query + secret))
	return hex.EncodeToString(sum[:])
}

// SignedQuery builds the full query string: the ordered parameters with
// the hash appended last. The hash parameter itself is not part of the
// hashed input.
func SignedQuery(params []Param, secret string) string {
	query := QueryString(params)
	return fmt.Sprintf("%s&hash=%s", query, Sign(query, secret))
}
