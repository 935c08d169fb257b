package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
)

type linkMailData struct {
	Name    string
	Link    string
	TTLText string
}

var (
	verifyEmailTmpl   = template.Must(template.New("verify_email").Parse(verifyEmailTpl))
	resetPasswordTmpl = template.Must(template.New("reset_password").Parse(resetPasswordTpl))
)

// SendVerifyEmail mails the email-verification link to a freshly registered
// (or re-requesting) account.
func (s *Sender) SendVerifyEmail(to, name, token string) error {
	html, err := renderLinkMail(verifyEmailTmpl, linkMailData{
		Name:    name,
		Link:    s.clientLink("/verify-email", token),
		TTLText: "7 days",
	})
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: "Verify your Chirp email",
		HTML:    html,
	})
}

// SendResetPassword mails the forgot-password link.
func (s *Sender) SendResetPassword(to, name, token string) error {
	html, err := renderLinkMail(resetPasswordTmpl, linkMailData{
		Name:    name,
		Link:    s.clientLink("/forgot-password", token),
		TTLText: "7 days",
	})
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: "Reset your Chirp password",
		HTML:    html,
	})
}

func (s *Sender) clientLink(path, token string) string {
	base := s.cfg.ClientURL
	if base == "" {
		base = "http://localhost:3000"
	}
	return fmt.Sprintf("%s%s?token=%s", base, path, url.QueryEscape(token))
}

func renderLinkMail(tmpl *template.Template, data linkMailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mail template: %w", err)
	}
	return buf.String(), nil
}

const verifyEmailTpl = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
</head>
<body style="background-color:#fff;margin:0 auto;font-family:ui-sans-serif,system-ui,-apple-system,BlinkMacSystemFont,Segoe UI,Roboto,Helvetica Neue,Arial,Noto Sans,sans-serif;padding:.5rem">
  <table align="center" width="100%" role="presentation" cellspacing="0" cellpadding="0" border="0" style="max-width:100%;border-width:1px;border-style:solid;border-radius:.25rem;margin:40px auto;padding:20px;width:550px;border-color:rgb(14,165,233)">
    <tbody>
      <tr><td>
        <h1 style="color:#000;font-size:18px;font-weight:400;text-align:center;margin:30px 0">Welcome to Chirp, <strong>{{.Name}}</strong></h1>
        <p style="font-size:14px;line-height:24px;margin:16px 0;color:#000">Confirm your email address to unlock posting and messaging. The link below stays valid for {{.TTLText}}.</p>
        <table align="center" width="100%" role="presentation" border="0" cellpadding="0" cellspacing="0" style="text-align:center;margin:32px 0">
          <tbody><tr><td>
            <a href="{{.Link}}" target="_blank" style="line-height:100%;text-decoration:none;display:inline-block;max-width:100%;padding:12px 20px;background-color:rgb(14,165,233);border-radius:.25rem;color:#fff;font-size:12px;font-weight:600;text-align:center">Verify email</a>
          </td></tr></tbody>
        </table>
        <p style="font-size:12px;line-height:24px;margin:16px 0;color:rgb(107,114,128)">If you did not create this account you can safely ignore this message.</p>
        <hr style="width:100%;border:none;border-top:1px solid #eaeaea;margin:26px 0" />
        <p style="font-size:10px;line-height:24px;margin:16px 0;text-align:center;color:rgb(156,163,175)">This is an automated message, please do not reply.</p>
      </td></tr>
    </tbody>
  </table>
</body>
</html>`

const resetPasswordTpl = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
</head>
<body style="background-color:#fff;margin:0 auto;font-family:ui-sans-serif,system-ui,-apple-system,BlinkMacSystemFont,Segoe UI,Roboto,Helvetica Neue,Arial,Noto Sans,sans-serif;padding:.5rem">
  <table align="center" width="100%" role="presentation" cellspacing="0" cellpadding="0" border="0" style="max-width:100%;border-width:1px;border-style:solid;border-radius:.25rem;margin:40px auto;padding:20px;width:550px;border-color:rgb(14,165,233)">
    <tbody>
      <tr><td>
        <h1 style="color:#000;font-size:18px;font-weight:400;text-align:center;margin:30px 0">Password reset requested</h1>
        <p style="font-size:14px;line-height:24px;margin:16px 0;color:#000">Hi <strong>{{.Name}}</strong>, someone asked to reset the password for this account. The link below stays valid for {{.TTLText}} and can be used once.</p>
        <table align="center" width="100%" role="presentation" border="0" cellpadding="0" cellspacing="0" style="text-align:center;margin:32px 0">
          <tbody><tr><td>
            <a href="{{.Link}}" target="_blank" style="line-height:100%;text-decoration:none;display:inline-block;max-width:100%;padding:12px 20px;background-color:rgb(14,165,233);border-radius:.25rem;color:#fff;font-size:12px;font-weight:600;text-align:center">Reset password</a>
          </td></tr></tbody>
        </table>
        <p style="font-size:12px;line-height:24px;margin:16px 0;color:rgb(107,114,128)">If this was not you, your password is still safe and no action is needed.</p>
        <hr style="width:100%;border:none;border-top:1px solid #eaeaea;margin:26px 0" />
        <p style="font-size:10px;line-height:24px;margin:16px 0;text-align:center;color:rgb(156,163,175)">This is an automated message, please do not reply.</p>
      </td></tr>
    </tbody>
  </table>
</body>
</html>`
