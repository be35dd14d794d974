package utils

import (
  "fmt"
  "net/mail"
  "net/url"
  "strings"
)

const minPasswordLength = 8

func NormalizeEmail(email string) string {
  return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
  if email == "" {
    return fmt.Errorf("an email is required")
  }
  if _, err := mail.ParseAddress(email); err != nil {
    return fmt.Errorf("invalid email address")
  }
  return nil
}

func ValidatePassword(password string) error {
  if password == "" {
    return fmt.Errorf("a password is required")
  }
  if len(password) < minPasswordLength {
    return fmt.Errorf("password must be at least %d characters", minPasswordLength)
  }
  return nil
}

// ValidateAbsoluteURL accepts http(s) URLs with a host. Anything else is
// rejected before a Document row is written for it.
func ValidateAbsoluteURL(raw string) error {
  raw = strings.TrimSpace(raw)
  if raw == "" {
    return fmt.Errorf("a url is required")
  }
  u, err := url.Parse(raw)
  if err != nil {
    return fmt.Errorf("invalid url: %v", err)
  }
  if u.Scheme != "http" && u.Scheme != "https" {
    return fmt.Errorf("url must be http or https")
  }
  if u.Host == "" {
    return fmt.Errorf("url must be absolute")
  }
  return nil
}

// TruncateRunes bounds a derived label without splitting a multibyte rune.
func TruncateRunes(s string, max int) string {
  runes := []rune(s)
  if len(runes) <= max {
    return s
  }
  return string(runes[:max])
}
