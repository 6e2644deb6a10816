package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"vault-inventory/core/apperr"

	"github.com/go-playground/validator/v10"
)

// DeliveryType tags the shape of an item's content.
type DeliveryType string

const (
	DeliveryKey     DeliveryType = "key"
	DeliveryAccount DeliveryType = "account"
	DeliveryCode    DeliveryType = "code"
	DeliveryLicense DeliveryType = "license"
	DeliveryBundle  DeliveryType = "bundle"
	DeliveryCustom  DeliveryType = "custom"
)

// Payload is the decrypted content of an item: a delivery type plus the
// variant-specific fields.
type Payload struct {
	Type DeliveryType    `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Content is a decoded payload variant.
type Content interface {
	// Mask returns a display-safe preview.
	Mask() string
	normalize()
}

// KeyContent is a product key.
type KeyContent struct {
	Key string `json:"key" validate:"required,max=512"`
}

// AccountContent is a set of account credentials.
type AccountContent struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=255"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Notes    string `json:"notes,omitempty"`
}

// CodeContent is a redemption code with an optional PIN.
type CodeContent struct {
	Code string `json:"code" validate:"required,max=255"`
	PIN  string `json:"pin,omitempty" validate:"max=32"`
}

// LicenseContent is a software license.
type LicenseContent struct {
	LicenseKey    string `json:"license_key" validate:"required,max=1024"`
	Holder        string `json:"holder,omitempty"`
	Seats         int    `json:"seats,omitempty" validate:"gte=0"`
	ActivationURL string `json:"activation_url,omitempty" validate:"omitempty,url"`
}

// BundleContent groups several keys or codes delivered together.
type BundleContent struct {
	Items []string `json:"items" validate:"required,min=1,max=100,dive,required"`
}

// CustomContent is free-form text.
type CustomContent struct {
	Content string `json:"content" validate:"required"`
}

// variants maps each delivery type to a constructor for its content.
var variants = map[DeliveryType]func() Content{
	DeliveryKey:     func() Content { return &KeyContent{} },
	DeliveryAccount: func() Content { return &AccountContent{} },
	DeliveryCode:    func() Content { return &CodeContent{} },
	DeliveryLicense: func() Content { return &LicenseContent{} },
	DeliveryBundle:  func() Content { return &BundleContent{} },
	DeliveryCustom:  func() Content { return &CustomContent{} },
}

var validate = validator.New()

// ValidDeliveryType reports whether t has a registered variant.
func ValidDeliveryType(t DeliveryType) bool {
	_, ok := variants[t]
	return ok
}

// Decode parses and validates the variant selected by p.Type. Unknown
// fields are rejected.
func (p Payload) Decode() (Content, error) {
	build, ok := variants[p.Type]
	if !ok {
		return nil, apperr.Validationf("unknown delivery type %q", p.Type)
	}
	if len(p.Data) == 0 {
		return nil, apperr.Validationf("payload data is empty")
	}

	content := build()
	dec := json.NewDecoder(bytes.NewReader(p.Data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(content); err != nil {
		return nil, apperr.Validationf("invalid %s payload: %v", p.Type, err)
	}
	content.normalize()

	if err := validate.Struct(content); err != nil {
		return nil, apperr.Validationf("invalid %s payload: %v", p.Type, err)
	}
	return content, nil
}

// Canonical returns the normalized encoding of the payload. Field order is
// fixed by the variant struct, so equal content always encodes identically.
func (p Payload) Canonical() ([]byte, Content, error) {
	content, err := p.Decode()
	if err != nil {
		return nil, nil, err
	}
	data, err := json.Marshal(content)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	canonical, err := json.Marshal(Payload{Type: p.Type, Data: data})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return canonical, content, nil
}

func (c *KeyContent) normalize() { c.Key = strings.TrimSpace(c.Key) }

func (c *AccountContent) normalize() {
	c.Username = strings.TrimSpace(c.Username)
	c.Email = strings.TrimSpace(c.Email)
}

func (c *CodeContent) normalize() {
	c.Code = strings.TrimSpace(c.Code)
	c.PIN = strings.TrimSpace(c.PIN)
}

func (c *LicenseContent) normalize() {
	c.LicenseKey = strings.TrimSpace(c.LicenseKey)
	c.ActivationURL = strings.TrimSpace(c.ActivationURL)
}

func (c *BundleContent) normalize() {
	for i, item := range c.Items {
		c.Items[i] = strings.TrimSpace(item)
	}
}

func (c *CustomContent) normalize() { c.Content = strings.TrimSpace(c.Content) }

// Mask shows the first and last four characters of the key.
func (c *KeyContent) Mask() string { return maskMiddle(c.Key, 4) }

// Mask shows the username only.
func (c *AccountContent) Mask() string { return "user: " + c.Username }

// Mask shows the last four characters of the code.
func (c *CodeContent) Mask() string { return maskHead(c.Code, 4) }

// Mask shows the first and last four characters of the license key.
func (c *LicenseContent) Mask() string { return maskMiddle(c.LicenseKey, 4) }

// Mask shows the number of bundled entries.
func (c *BundleContent) Mask() string {
	if len(c.Items) == 1 {
		return "bundle of 1 item"
	}
	return fmt.Sprintf("bundle of %d items", len(c.Items))
}

// Mask shows the content length.
func (c *CustomContent) Mask() string {
	return fmt.Sprintf("custom content (%d chars)", len([]rune(c.Content)))
}

// maskMiddle keeps `keep` runes at each end and stars out the rest,
// preserving separators so key groups stay readable.
func maskMiddle(s string, keep int) string {
	runes := []rune(s)
	if len(runes) <= keep*2 {
		return strings.Repeat("*", len(runes))
	}
	out := make([]rune, len(runes))
	for i, r := range runes {
		switch {
		case i < keep || i >= len(runes)-keep:
			out[i] = r
		case r == '-' || r == ' ':
			out[i] = r
		default:
			out[i] = '*'
		}
	}
	return string(out)
}

// maskHead stars out everything but the last `keep` runes.
func maskHead(s string, keep int) string {
	runes := []rune(s)
	if len(runes) <= keep {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-keep) + string(runes[len(runes)-keep:])
}
