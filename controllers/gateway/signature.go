package gatewayControllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/junaidrashid-git/storefront-api/models"
)

// SignedFieldNames is the field order the gateway expects in the signature.
var SignedFieldNames = []string{"total_amount", "transaction_uuid", "product_code"}

// SigningMessage joins name=value pairs with commas in the order of names.
func SigningMessage(fields map[string]string, names []string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + fields[name]
	}
	return strings.Join(parts, ",")
}

// Sign returns the base64 HMAC-SHA256 of the signing message.
func Sign(secret string, fields map[string]string, names []string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SigningMessage(fields, names)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares a received signature in constant time.
func VerifySignature(secret string, fields map[string]string, names []string, signature string) bool {
	want := Sign(secret, fields, names)
	return hmac.Equal([]byte(want), []byte(signature))
}

// CallbackData is the signed payload the gateway appends to its redirects
// as the base64 "data" query parameter.
type CallbackData struct {
	TransactionCode string
	Status          string
	TotalAmount     string
	TransactionUUID string
	ProductCode     string
}

// DecodeCallbackData decodes raw and checks its signature over the fields
// listed in its own signed_field_names.
func DecodeCallbackData(secret, raw string) (*CallbackData, error) {
	// Query decoding turns '+' into ' '.
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "+")
	body, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: data is not base64", models.ErrMalformedCallback)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var values map[string]interface{}
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: data is not a json object", models.ErrMalformedCallback)
	}

	fields := make(map[string]string, len(values))
	for k, v := range values {
		switch v := v.(type) {
		case string:
			fields[k] = v
		case json.Number:
			fields[k] = v.String()
		case nil:
			fields[k] = ""
		default:
			fields[k] = fmt.Sprint(v)
		}
	}

	names := strings.Split(fields["signed_field_names"], ",")
	if fields["signed_field_names"] == "" || fields["signature"] == "" {
		return nil, fmt.Errorf("%w: data is not signed", models.ErrMalformedCallback)
	}
	if !VerifySignature(secret, fields, names, fields["signature"]) {
		return nil, fmt.Errorf("%w: signature mismatch", models.ErrMalformedCallback)
	}

	return &CallbackData{
		TransactionCode: fields["transaction_code"],
		Status:          fields["status"],
		TotalAmount:     fields["total_amount"],
		TransactionUUID: fields["transaction_uuid"],
		ProductCode:     fields["product_code"],
	}, nil
}
