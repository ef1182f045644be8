package render

import (
	"fmt"

	"luckydraw/application/dto"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// PaymentQR encodes a receiving account as a QR code PNG. The payload is the method and
// phone number, which both wallet apps accept in their scan-to-pay field.
func PaymentQR(account dto.PaymentAccount) ([]byte, error) {
	if account.Phone == "" {
		return nil, fmt.Errorf("account phone is required")
	}
	payload := fmt.Sprintf("%s:%s:%s", account.Method, account.Phone, account.AccountName)
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
