package internal

import "time"

// AWSSession is a temporary credential set obtained from STS.
type AWSSession struct {
	AccessKey    string    `json:"access_key"`
	SecretKey    string    `json:"secret_key"`
	SessionToken string    `json:"session_token"`
	Expiration   time.Time `json:"expiration"`

	Profile   string `json:"profile,omitempty"`
	Region    string `json:"region,omitempty"`
	MFASerial string `json:"mfa_serial,omitempty"`
	Duration  int32  `json:"duration,omitempty"`
}

// Valid reports whether the session is usable at now with margin to spare.
func (s *AWSSession) Valid(now time.Time, margin time.Duration) bool {
	return s != nil && s.AccessKey != "" && s.SecretKey != "" && now.Add(margin).Before(s.Expiration)
}

// CachedSession is the non-secret view of a cache entry.
type CachedSession struct {
	Key        string
	Profile    string
	Region     string
	MFASerial  string
	Expiration time.Time
}
