package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// PartnerInviteData fills the partner invitation email
type PartnerInviteData struct {
	Email       string
	PartnerName string
	ProgramName string
	ProgramLogo string
	BrandName   string
	ShortLink   string
	InviteURL   string
}

var partnerInviteHTML = htmltemplate.Must(htmltemplate.New("partner_invite_html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #171717;">
  {{if .ProgramLogo}}<img src="{{.ProgramLogo}}" alt="{{.ProgramName}}" height="48">{{end}}
  <h2>{{.ProgramName}} invited you to join {{.BrandName}} Partners</h2>
  <p>Hi {{.PartnerName}},</p>
  <p>{{.ProgramName}} would like you to promote them as a partner. Your referral link is ready:</p>
  <p><a href="{{.ShortLink}}">{{.ShortLink}}</a></p>
  <p><a href="{{.InviteURL}}" style="background:#000;color:#fff;padding:10px 16px;border-radius:6px;text-decoration:none;">Accept invite</a></p>
</body>
</html>`))

var partnerInviteText = texttemplate.Must(texttemplate.New("partner_invite_text").Parse(`Hi {{.PartnerName}},

{{.ProgramName}} invited you to join {{.BrandName}} Partners.

Your referral link: {{.ShortLink}}
Accept the invite: {{.InviteURL}}
`))

// PartnerInviteSubject returns the subject line of a partner invitation
func PartnerInviteSubject(programName, brandName string) string {
	return fmt.Sprintf("%s invited you to join %s Partners", programName, brandName)
}

// RenderPartnerInvite builds the invitation email for data
func RenderPartnerInvite(data PartnerInviteData) (EmailMessage, error) {
	var html, text bytes.Buffer
	if err := partnerInviteHTML.Execute(&html, data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to render invite html: %w", err)
	}
	if err := partnerInviteText.Execute(&text, data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to render invite text: %w", err)
	}

	return EmailMessage{
		To:       data.Email,
		Subject:  PartnerInviteSubject(data.ProgramName, data.BrandName),
		TextBody: text.String(),
		HTMLBody: html.String(),
		Tags:     map[string]string{"Category": "partner-invite"},
	}, nil
}
