// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
	"strconv"
)

// OTPEmailData is the data for a one-time verification code email.
type OTPEmailData struct {
	SiteName  string
	Code      string
	ExpiryMin int
}

// OTPEmail renders the plain text and HTML versions of a verification code email.
func OTPEmail(data OTPEmailData) (textBody, htmlBody string) {
	textBody = "Your " + data.SiteName + " verification code is: " + data.Code + "\n\n" +
		"This code expires in " + strconv.Itoa(data.ExpiryMin) + " minutes.\n\n" +
		"If you did not request this, you can safely ignore this email."

	var buf bytes.Buffer
	_ = otpHTMLTmpl.Execute(&buf, data)
	return textBody, buf.String()
}

// ContactNotificationData is the data for the admin notification sent on
// each contact form submission.
type ContactNotificationData struct {
	SiteName string
	Name     string
	Email    string
	Phone    string
	Subject  string
	Message  string
}

// ContactNotificationEmail renders the admin notification for a contact
// form submission.
func ContactNotificationEmail(data ContactNotificationData) (textBody, htmlBody string) {
	textBody = "New message from the " + data.SiteName + " contact form.\n\n" +
		"Name: " + data.Name + "\n" +
		"Email: " + data.Email + "\n"
	if data.Phone != "" {
		textBody += "Phone: " + data.Phone + "\n"
	}
	if data.Subject != "" {
		textBody += "Subject: " + data.Subject + "\n"
	}
	textBody += "\n" + data.Message + "\n"

	var buf bytes.Buffer
	_ = contactHTMLTmpl.Execute(&buf, data)
	return textBody, buf.String()
}

const emailShellOpen = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px 32px; text-align: center; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #18181b;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">`

const emailShellClose = `
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

var otpHTMLTmpl = template.Must(template.New("otp").Parse(emailShellOpen + `
              <h2 style="margin: 0 0 16px 0; font-size: 20px; color: #18181b;">Your Verification Code</h2>
              <div style="margin: 8px 0 24px 0; padding: 16px 32px; background-color: #f4f4f5; border-radius: 8px; font-size: 32px; font-weight: 700; letter-spacing: 6px; text-align: center; color: #18181b;">{{.Code}}</div>
              <p style="margin: 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                This code expires in <strong>{{.ExpiryMin}} minutes</strong>. If you didn't request it, you can ignore this email.
              </p>` + emailShellClose))

var contactHTMLTmpl = template.Must(template.New("contact").Parse(emailShellOpen + `
              <h2 style="margin: 0 0 16px 0; font-size: 20px; color: #18181b;">New Contact Message</h2>
              <p style="margin: 0 0 8px 0; font-size: 15px; color: #52525b;"><strong>{{.Name}}</strong> &lt;{{.Email}}&gt;</p>
              {{if .Phone}}<p style="margin: 0 0 8px 0; font-size: 14px; color: #52525b;">Phone: {{.Phone}}</p>{{end}}
              {{if .Subject}}<p style="margin: 0 0 16px 0; font-size: 14px; color: #52525b;">Subject: {{.Subject}}</p>{{end}}
              <p style="margin: 0; font-size: 15px; line-height: 1.6; color: #18181b; white-space: pre-wrap;">{{.Message}}</p>` + emailShellClose))
