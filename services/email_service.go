package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"relieflink/models"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// EmailService sends transactional mail for the alert lifecycle.
type EmailService interface {
	SendEmail(ctx context.Context, data EmailData) error
	SendAlertBroadcast(ctx context.Context, to, name string, alert *models.Alert) error
	SendJoinConfirmation(ctx context.Context, to, name string, alert *models.Alert) error
}

// EmailData structure for email content
type EmailData struct {
	To       string                 `json:"to"`
	Subject  string                 `json:"subject"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data"`
}

// SMTPEmailService implements EmailService over SMTP
type SMTPEmailService struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(host, port, username, password, from, baseURL string) EmailService {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		portNum = 587
	}

	return &SMTPEmailService{
		dialer:  gomail.NewDialer(host, portNum, username, password),
		from:    from,
		baseURL: baseURL,
	}
}

// SendEmail builds the template and delivers the message. The context is
// honored up front; gomail itself does not support cancellation mid-dial.
func (es *SMTPEmailService) SendEmail(ctx context.Context, data EmailData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	htmlBody, err := es.buildHTMLTemplate(data.Template, data.Data)
	if err != nil {
		logrus.Errorf("Failed to build email template: %v", err)
		return err
	}

	textBody := es.buildTextVersion(data.Template, data.Data)

	m := gomail.NewMessage()
	m.SetHeader("From", es.from)
	m.SetHeader("To", data.To)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- es.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			logrus.Errorf("Failed to send email to %s: %v", data.To, err)
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	logrus.Infof("Email sent successfully to %s", data.To)
	return nil
}

// SendAlertBroadcast sends the roster fan-out email for a new active alert.
func (es *SMTPEmailService) SendAlertBroadcast(ctx context.Context, to, name string, alert *models.Alert) error {
	alertURL := fmt.Sprintf("%s/alerts/%s", es.baseURL, alert.AlertID)

	return es.SendEmail(ctx, EmailData{
		To:       to,
		Subject:  fmt.Sprintf("🚨 %s Emergency: %s", strings.Title(alert.EmergencyType), alert.Title),
		Template: "alert_broadcast",
		Data: map[string]interface{}{
			"Name":         name,
			"Title":        alert.Title,
			"Description":  alert.Description,
			"Type":         alert.EmergencyType,
			"Urgency":      alert.UrgencyLevel,
			"Address":      alert.Location.Address,
			"Organization": alert.OrganizationName,
			"Skills":       strings.Join(alert.RequiredSkills, ", "),
			"AlertURL":     alertURL,
		},
	})
}

// SendJoinConfirmation confirms a volunteer's response to an alert.
func (es *SMTPEmailService) SendJoinConfirmation(ctx context.Context, to, name string, alert *models.Alert) error {
	alertURL := fmt.Sprintf("%s/alerts/%s", es.baseURL, alert.AlertID)

	return es.SendEmail(ctx, EmailData{
		To:       to,
		Subject:  fmt.Sprintf("You're in: %s", alert.Title),
		Template: "join_confirmation",
		Data: map[string]interface{}{
			"Name":         name,
			"Title":        alert.Title,
			"Address":      alert.Location.Address,
			"Organization": alert.OrganizationName,
			"Instructions": alert.Instructions,
			"AlertURL":     alertURL,
		},
	})
}

// buildHTMLTemplate builds HTML email content from template
func (es *SMTPEmailService) buildHTMLTemplate(templateName string, data map[string]interface{}) (string, error) {
	templates := map[string]string{
		"alert_broadcast": `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Emergency Alert</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #dc3545; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f8f9fa; }
        .detail { padding: 8px 0; border-bottom: 1px solid #dee2e6; }
        .button { display: inline-block; padding: 12px 24px; background: #dc3545; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🚨 Emergency Alert</h1>
        </div>
        <div class="content">
            <p>Hi {{.Name}},</p>
            <p><strong>{{.Organization}}</strong> needs volunteers:</p>
            <h2>{{.Title}}</h2>
            <p>{{.Description}}</p>
            <div class="detail"><strong>Type:</strong> {{.Type}}</div>
            <div class="detail"><strong>Urgency:</strong> {{.Urgency}}</div>
            <div class="detail"><strong>Location:</strong> {{.Address}}</div>
            {{if .Skills}}<div class="detail"><strong>Skills needed:</strong> {{.Skills}}</div>{{end}}
            <p><a href="{{.AlertURL}}" class="button">View Alert &amp; Respond</a></p>
            <p>If the button doesn't work, copy and paste this link into your browser:</p>
            <p>{{.AlertURL}}</p>
        </div>
        <div class="footer">
            <p>You receive these alerts as a registered ReliefLink volunteer.</p>
        </div>
    </div>
</body>
</html>`,

		"join_confirmation": `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Response Confirmed</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #28a745; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f8f9fa; }
        .detail { padding: 8px 0; border-bottom: 1px solid #dee2e6; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>✅ Response Confirmed</h1>
        </div>
        <div class="content">
            <p>Hi {{.Name}},</p>
            <p>Thank you for responding to <strong>{{.Title}}</strong> organized by {{.Organization}}.</p>
            <div class="detail"><strong>Location:</strong> {{.Address}}</div>
            {{if .Instructions}}<div class="detail"><strong>Instructions:</strong> {{.Instructions}}</div>{{end}}
            <p>Remember to check in when you arrive and check out when you finish so your hours are recorded.</p>
            <p>{{.AlertURL}}</p>
        </div>
        <div class="footer">
            <p>ReliefLink — connecting volunteers with communities in need.</p>
        </div>
    </div>
</body>
</html>`,
	}

	tmplStr, exists := templates[templateName]
	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	tmpl, err := template.New(templateName).Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

// buildTextVersion builds text version of email
func (es *SMTPEmailService) buildTextVersion(templateName string, data map[string]interface{}) string {
	name, ok := data["Name"].(string)
	if !ok {
		name = "Volunteer"
	}

	switch templateName {
	case "alert_broadcast":
		title, _ := data["Title"].(string)
		org, _ := data["Organization"].(string)
		address, _ := data["Address"].(string)
		alertURL, _ := data["AlertURL"].(string)
		return fmt.Sprintf(`Hi %s,

%s needs volunteers: %s

Location: %s

View the alert and respond here:

%s

You receive these alerts as a registered ReliefLink volunteer.`, name, org, title, address, alertURL)

	case "join_confirmation":
		title, _ := data["Title"].(string)
		alertURL, _ := data["AlertURL"].(string)
		return fmt.Sprintf(`Hi %s,

Thank you for responding to %s.

Remember to check in when you arrive and check out when you finish so your hours are recorded.

%s

ReliefLink — connecting volunteers with communities in need.`, name, title, alertURL)

	default:
		return "Notification from ReliefLink"
	}
}

// MockEmailService for testing/development
type MockEmailService struct{}

func NewMockEmailService() EmailService {
	return &MockEmailService{}
}

func (es *MockEmailService) SendEmail(ctx context.Context, data EmailData) error {
	logrus.Infof("[MOCK EMAIL] To: %s, Subject: %s, Template: %s",
		data.To, data.Subject, data.Template)
	return nil
}

func (es *MockEmailService) SendAlertBroadcast(ctx context.Context, to, name string, alert *models.Alert) error {
	logrus.Infof("[MOCK EMAIL] Alert broadcast to %s for alert %s", to, alert.AlertID)
	return nil
}

func (es *MockEmailService) SendJoinConfirmation(ctx context.Context, to, name string, alert *models.Alert) error {
	logrus.Infof("[MOCK EMAIL] Join confirmation to %s for alert %s", to, alert.AlertID)
	return nil
}
