package model

import "time"

// Lead is the partial checkout data persisted after the identity step so an
// abandoned purchase can be re-engaged later. Recording it is best-effort;
// the checkout flow never waits on it.
type Lead struct {
	ID            string // ULID, time-ordered for cheap chronological listing
	Email         string
	Name          string
	Phone         string
	ProductID     string
	PriceID       string
	AffiliateCode string
	Partner       string            // set for partner-offer sessions
	UTM           map[string]string // utm_source etc., captured upstream
	Consent       bool
	CreatedAt     time.Time
}
