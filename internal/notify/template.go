package notify

import (
	"bytes"
	"html/template"
)

const subject = "C3 Canteen - OTP Verification"

var codeTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #ec7f13;">C3 College Canteen Catalog</h2>
  <p>Your OTP verification code is:</p>
  <div style="background-color: #f3ede7; padding: 20px; text-align: center; border-radius: 8px; margin: 20px 0;">
    <h1 style="color: #ec7f13; font-size: 32px; margin: 0; letter-spacing: 8px;">{{.Code}}</h1>
  </div>
  <p style="color: #666; font-size: 14px;">This code will expire in {{.ExpiryMinutes}} minutes.</p>
  <p style="color: #666; font-size: 14px;">If you didn't request this code, please ignore this email.</p>
</div>
`))

type codeData struct {
	Code          string
	ExpiryMinutes int
}

func renderCode(code string, expiryMinutes int) (string, error) {
	var buf bytes.Buffer
	if err := codeTemplate.Execute(&buf, codeData{Code: code, ExpiryMinutes: expiryMinutes}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
