// Package geoplace resolves a client IP to the region code the engine
// filters catalog bundles and ad lookups by, adapted from the teacher
// codebase's internal/geoip package (a MaxMind GeoIP2 database with a
// JSON-file fallback for environments without one).
package geoplace

import (
	"encoding/json"
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"
)

type fallbackEntry struct {
	net    *net.IPNet
	region string
}

// Resolver looks up the region code (matching catalog.GeoTarget.Code) for a
// client IP.
type Resolver struct {
	db       *geoip2.Reader
	fallback []fallbackEntry
}

// Open loads a MaxMind GeoLite2-Country/City database at path. If path does
// not contain a valid MaxMind database, it is instead parsed as a JSON list
// of {"net", "region"} CIDR entries, for tests and local development.
func Open(path string) (*Resolver, error) {
	r := &Resolver{}
	if db, err := geoip2.Open(path); err == nil {
		r.db = db
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []struct {
		Net    string `json:"net"`
		Region string `json:"region"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, n, perr := net.ParseCIDR(e.Net); perr == nil {
			r.fallback = append(r.fallback, fallbackEntry{net: n, region: e.Region})
		}
	}
	return r, nil
}

// Region returns the ISO country code for ip, or "" if unresolvable.
func (r *Resolver) Region(ip net.IP) string {
	if r == nil {
		return ""
	}
	if r.db != nil {
		if rec, err := r.db.Country(ip); err == nil {
			return rec.Country.IsoCode
		}
	}
	for _, e := range r.fallback {
		if e.net.Contains(ip) {
			return e.region
		}
	}
	return ""
}

// Close releases the underlying database handle, if any.
func (r *Resolver) Close() error {
	if r != nil && r.db != nil {
		return r.db.Close()
	}
	return nil
}
