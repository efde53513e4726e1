package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	sessionCookie = "distil-session"
	sessionTTL    = 14 * 24 * time.Hour
)

// sessions mints and verifies signed login cookies. The cookie value is the
// username and an expiry, authenticated with an HMAC over the configured
// secret; there is no server-side session state to lose.
type sessions struct {
	secret []byte
	now    func() time.Time
}

func (s sessions) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s sessions) set(w http.ResponseWriter, username string) {
	expiry := s.clock().Add(sessionTTL).Unix()
	payload := username + "|" + strconv.FormatInt(expiry, 10)
	value := base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + s.sign(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  time.Unix(expiry, 0),
		HttpOnly: true,
	})
}

func (s sessions) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// user returns the logged-in username, or "" when the request carries no
// valid session.
func (s sessions) user(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	i := strings.LastIndexByte(c.Value, '.')
	if i < 0 {
		return ""
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value[:i])
	if err != nil {
		return ""
	}
	payload, sig := string(raw), c.Value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return ""
	}
	j := strings.LastIndexByte(payload, '|')
	if j < 0 {
		return ""
	}
	expiry, err := strconv.ParseInt(payload[j+1:], 10, 64)
	if err != nil || s.clock().Unix() > expiry {
		return ""
	}
	return payload[:j]
}
