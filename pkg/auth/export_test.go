package auth

import "time"

// SetClock pins the issuer's notion of now.
func (i *Issuer) SetClock(now func() time.Time) { i.now = now }
