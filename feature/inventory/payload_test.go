package inventory

import (
	"encoding/json"
	"testing"

	"vault-inventory/core/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(t DeliveryType, data string) Payload {
	return Payload{Type: t, Data: json.RawMessage(data)}
}

func TestPayload_Decode(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr bool
		mask    string
	}{
		{"key", payload(DeliveryKey, `{"key":"ABCD-EFGH-IJKL-MNOP"}`), false, "ABCD-****-****-MNOP"},
		{"short key", payload(DeliveryKey, `{"key":"ABC"}`), false, "***"},
		{"account", payload(DeliveryAccount, `{"username":"gamer42","password":"hunter2","email":"g@example.com"}`), false, "user: gamer42"},
		{"code", payload(DeliveryCode, `{"code":"XYZ123456","pin":"0000"}`), false, "*****3456"},
		{"license", payload(DeliveryLicense, `{"license_key":"LIC-0000-1111-2222","seats":5}`), false, "LIC-****-****-2222"},
		{"bundle", payload(DeliveryBundle, `{"items":["A","B","C"]}`), false, "bundle of 3 items"},
		{"custom", payload(DeliveryCustom, `{"content":"hello"}`), false, "custom content (5 chars)"},
		{"unknown type", payload("voucher", `{"key":"x"}`), true, ""},
		{"empty data", Payload{Type: DeliveryKey}, true, ""},
		{"missing required field", payload(DeliveryAccount, `{"username":"u"}`), true, ""},
		{"unknown field", payload(DeliveryKey, `{"key":"k","extra":1}`), true, ""},
		{"blank after trim", payload(DeliveryKey, `{"key":"   "}`), true, ""},
		{"bad email", payload(DeliveryAccount, `{"username":"u","password":"p","email":"nope"}`), true, ""},
		{"empty bundle", payload(DeliveryBundle, `{"items":[]}`), true, ""},
		{"wrong json type", payload(DeliveryCode, `{"code":42}`), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := tt.payload.Decode()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mask, content.Mask())
		})
	}
}

func TestPayload_CanonicalIsStable(t *testing.T) {
	a := payload(DeliveryAccount, `{"username":" gamer42 ","password":"pw","email":"g@example.com"}`)
	b := payload(DeliveryAccount, `{"email":"g@example.com","password":"pw","username":"gamer42"}`)

	ca, _, err := a.Canonical()
	require.NoError(t, err)
	cb, _, err := b.Canonical()
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))

	var back Payload
	require.NoError(t, json.Unmarshal(ca, &back))
	assert.Equal(t, DeliveryAccount, back.Type)
	assert.JSONEq(t, `{"username":"gamer42","password":"pw","email":"g@example.com"}`, string(back.Data))
}

func TestPayload_PasswordsAreNotTrimmed(t *testing.T) {
	a, _, err := payload(DeliveryAccount, `{"username":"u","password":" pw "}`).Canonical()
	require.NoError(t, err)
	b, _, err := payload(DeliveryAccount, `{"username":"u","password":"pw"}`).Canonical()
	require.NoError(t, err)
	assert.NotEqual(t, string(a), string(b))
}

func TestValidDeliveryType(t *testing.T) {
	for _, dt := range []DeliveryType{DeliveryKey, DeliveryAccount, DeliveryCode, DeliveryLicense, DeliveryBundle, DeliveryCustom} {
		assert.True(t, ValidDeliveryType(dt), dt)
	}
	assert.False(t, ValidDeliveryType("voucher"))
}
