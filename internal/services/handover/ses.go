package handover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	appConfig "mortgage-qualification-engine/internal/config"
	"mortgage-qualification-engine/internal/models"
)

// ErrNoRecipients is returned when no adviser address is configured.
var ErrNoRecipients = errors.New("no adviser email addresses configured")

// EmailSender is the part of the SES client the notifier uses.
type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier emails a lead summary to the adviser team.
type SESNotifier struct {
	client     EmailSender
	fromEmail  string
	recipients []string
	logger     *zap.Logger
}

// NewSESNotifier creates a notifier from the default AWS credential chain.
func NewSESNotifier(ctx context.Context, cfg *appConfig.Config, logger *zap.Logger) (*SESNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESNotifierWithClient(ses.NewFromConfig(awsCfg), cfg.SESSenderEmail, cfg.AdviserEmails, logger), nil
}

// NewSESNotifierWithClient creates a notifier over an existing client.
func NewSESNotifierWithClient(client EmailSender, fromEmail string, recipients []string, logger *zap.Logger) *SESNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SESNotifier{
		client:     client,
		fromEmail:  fromEmail,
		recipients: recipients,
		logger:     logger,
	}
}

// Channel implements Notifier.
func (s *SESNotifier) Channel() string {
	return "email"
}

// Notify sends one email addressed to every adviser.
func (s *SESNotifier) Notify(ctx context.Context, lead models.Lead) error {
	if len(s.recipients) == 0 {
		return ErrNoRecipients
	}

	htmlBody, err := renderLeadHTML(lead)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: s.recipients,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(leadSubject(lead)),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(renderLeadText(lead)),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Lead email sent",
		zap.String("session_id", lead.SessionID),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)
	return nil
}

func leadSubject(lead models.Lead) string {
	return fmt.Sprintf("New mortgage lead: %s, %s", lead.Context.PropertyType, formatAmount(lead.Context))
}

func formatAmount(uc models.UserContext) string {
	if !uc.HasLoanSize() {
		return "loan size unknown"
	}
	return "$" + models.FormatAmount(uc.LoanAmount())
}

var leadTemplate = template.Must(template.New("lead").Funcs(template.FuncMap{
	"amount": formatAmount,
}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1e3a5f; color: white; padding: 24px; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        .package { background: white; border-radius: 8px; padding: 16px; margin: 12px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .label { font-size: 12px; color: #999; }
    </style>
</head>
<body>
    <div class="header">
        <h2>New lead from Dexter</h2>
        <p>Session {{.SessionID}} ({{.Reason}})</p>
    </div>
    <div class="content">
        <p><span class="label">Property</span><br>{{.Context.PropertyType}}</p>
        <p><span class="label">Loan</span><br>{{amount .Context}}</p>
        <p><span class="label">Purpose</span><br>{{.Context.LoanPurpose}}</p>
        <p><span class="label">Rate preference</span><br>{{.Context.RatePreference}}</p>
        {{if .Context.LockInStatus}}<p><span class="label">Lock-in</span><br>{{.Context.LockInStatus}}</p>{{end}}
        {{if .LastMessage}}<p><span class="label">Last message</span><br>{{.LastMessage}}</p>{{end}}
        {{range .Packages}}
        <div class="package">
            <strong>{{.Bank}}</strong> {{.PackageName}}<br>
            {{.Rates}}{{if .LockinPeriod}} ({{.LockinPeriod}} lock-in){{end}}
        </div>
        {{else}}
        <p>No catalog package matched this profile.</p>
        {{end}}
    </div>
</body>
</html>`))

func renderLeadHTML(lead models.Lead) (string, error) {
	var buf bytes.Buffer
	if err := leadTemplate.Execute(&buf, lead); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderLeadText(lead models.Lead) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New lead from Dexter (session %s, %s)\n\n", lead.SessionID, lead.Reason)
	fmt.Fprintf(&b, "Property: %s\n", lead.Context.PropertyType)
	fmt.Fprintf(&b, "Loan: %s\n", formatAmount(lead.Context))
	fmt.Fprintf(&b, "Purpose: %s\n", lead.Context.LoanPurpose)
	fmt.Fprintf(&b, "Rate preference: %s\n", lead.Context.RatePreference)
	if lead.Context.LockInStatus != "" {
		fmt.Fprintf(&b, "Lock-in: %s\n", lead.Context.LockInStatus)
	}
	if lead.LastMessage != "" {
		fmt.Fprintf(&b, "Last message: %s\n", lead.LastMessage)
	}

	if len(lead.Packages) == 0 {
		b.WriteString("\nNo catalog package matched this profile.\n")
		return b.String()
	}

	b.WriteString("\nPackages shown:\n")
	for i, p := range lead.Packages {
		fmt.Fprintf(&b, "%d. %s %s: %s\n", i+1, p.Bank, p.PackageName, p.Rates)
	}
	return b.String()
}
