package payment

import (
    "crypto/hmac"
    "crypto/sha256"
    "crypto/subtle"
    "encoding/base64"
    "strings"
)

// Field is one name=value pair of a signable message.  The slice order
// in which fields are passed to Canonicalize is part of the wire
// contract with the gateway, not a serialization detail: eSewa signs
// exactly "total_amount,transaction_uuid,product_code" in that order.
type Field struct {
    Name  string
    Value string
}

// Canonicalize joins the fields as "name=value" pairs separated by
// commas, in the exact order given.
func Canonicalize(fields []Field) string {
    parts := make([]string, 0, len(fields))
    for _, f := range fields {
        parts = append(parts, f.Name+"="+f.Value)
    }
    return strings.Join(parts, ",")
}

// Sign computes HMAC-SHA256 over the message with the channel secret
// and returns the digest base64-encoded, matching what eSewa expects in
// the signature field.
func Sign(secret, message string) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(message))
    return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the signature for the message and compares
// it with the provided one in constant time.  Any mismatch is a hard
// failure; there is no tolerant mode.
func VerifySignature(secret, message, provided string) bool {
    expected := Sign(secret, message)
    return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
