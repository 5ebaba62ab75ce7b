// Package token provides HMAC-signed tokens binding a shown ad's identity to
// a notification-result callback, adapted from the teacher codebase's
// click-token scheme (same base64url(payload).base64url(signature) shape and
// HMAC-SHA256 verification) but retargeted from auction/bid fields to the
// ad-uuid/category/creative-set triple the engine needs to authenticate OnNotificationResult.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// payload is the signed notification-callback claim.
type payload struct {
	AdUUID        string `json:"u"`
	Category      string `json:"c"`
	CreativeSetID string `json:"cs"`
	TS            int64  `json:"t"`
}

// Claims is the verified content of a notification token.
type Claims struct {
	AdUUID        string
	Category      string
	CreativeSetID string
}

// Generate signs a token binding adUUID, category and creativeSetID to the
// current time, for a host to hand back to its UI and receive unmodified on
// the matching /admin/notification/{kind} callback.
func Generate(adUUID, category, creativeSetID string, secret []byte) (string, error) {
	pl := payload{
		AdUUID:        adUUID,
		Category:      category,
		CreativeSetID: creativeSetID,
		TS:            time.Now().Unix(),
	}
	data, err := json.Marshal(pl)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	sig := mac.Sum(nil)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(data) + "." + enc.EncodeToString(sig), nil
}

// Verify checks the token's signature and expiry against ttl (zero disables
// expiry checking) and returns the bound claims.
func Verify(tok string, secret []byte, ttl time.Duration) (Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return Claims{}, ErrInvalid
	}
	enc := base64.RawURLEncoding
	data, err := enc.DecodeString(parts[0])
	if err != nil {
		return Claims{}, ErrInvalid
	}
	sig, err := enc.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalid
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return Claims{}, ErrInvalid
	}

	var pl payload
	if err := json.Unmarshal(data, &pl); err != nil {
		return Claims{}, ErrInvalid
	}
	if ttl > 0 && time.Since(time.Unix(pl.TS, 0)) > ttl {
		return Claims{}, ErrExpired
	}

	return Claims{AdUUID: pl.AdUUID, Category: pl.Category, CreativeSetID: pl.CreativeSetID}, nil
}
