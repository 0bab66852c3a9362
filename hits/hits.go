// Package hits counts unique daily visitors per page and draws the counter
// badge shown under each page.
package hits

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Counts is the number of unique visitors of a page.
type Counts struct {
	Today int `json:"today"`
	Total int `json:"total"`
}

const saltKey = "hash_salt"

// loadSalt reads the per-installation salt, creating it on first use.
func loadSalt(store *Store) (string, error) {
	s, err := store.GetSetting(saltKey)
	if err != nil {
		return "", fmt.Errorf("read hash salt: %w", err)
	}
	if s != "" {
		return s, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	s = hex.EncodeToString(b)
	if err := store.SetSetting(saltKey, s); err != nil {
		return "", fmt.Errorf("store hash salt: %w", err)
	}
	return s, nil
}

// VisitorHash identifies a visitor for one day without storing the IP.
// The day is part of the hash so visitors cannot be followed across days.
func VisitorHash(salt, ip, userAgent, day string) string {
	h := sha256.New()
	h.Write([]byte(salt + "|" + ip + "|" + userAgent + "|" + day))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Day formats t as the counting day in loc.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

var bots = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"googlebot", "bingbot", "yandex", "baidu", "duckduckbot",
	"facebookexternalhit", "twitterbot", "linkedinbot",
	"ahrefsbot", "semrushbot", "mj12bot", "dotbot",
	"curl/", "wget/", "python-requests", "go-http-client",
}

// IsBot checks if the User-Agent is likely a bot/crawler. An empty agent
// counts as a bot.
func IsBot(ua string) bool {
	if strings.TrimSpace(ua) == "" {
		return true
	}
	ua = strings.ToLower(ua)
	for _, bot := range bots {
		if strings.Contains(ua, bot) {
			return true
		}
	}
	return false
}
