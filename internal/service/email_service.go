package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"pyquest/internal/logx"
)

// sesAPI is the part of the SES client the email service calls
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService delivers reset codes to a grown-up's inbox via Amazon SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	toEmail   string
	enabled   bool
}

// NewEmailService creates the SES sender. Without a from and a to address the
// service is disabled and every send is skipped.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, toEmail string) (*EmailService, error) {
	if fromEmail == "" || toEmail == "" {
		logx.Info("Email service disabled: SES_FROM_EMAIL or RESET_NOTIFY_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logx.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, toEmail), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, toEmail string) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmail:   toEmail,
		enabled:   true,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendResetCode emails the code for username to the configured grown-up
func (s *EmailService) SendResetCode(ctx context.Context, username, code string, expiresAt time.Time) error {
	if !s.enabled {
		logx.Debug("Skipping reset code email (service disabled)", "username", username)
		return nil
	}

	minutes := int(time.Until(expiresAt).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	subject := fmt.Sprintf("PyQuest password code for %s", username)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; color: #306998; }
	</style>
</head>
<body>
	<div class="container">
		<p>%s asked to reset their PyQuest password.</p>
		<p>Read them this code:</p>
		<p class="code">%s</p>
		<p>The code works for %d minutes. If nobody asked for it, you can ignore this email.</p>
	</div>
</body>
</html>
`, username, code, minutes)

	textBody := fmt.Sprintf(`%s asked to reset their PyQuest password.

Read them this code: %s

The code works for %d minutes. If nobody asked for it, you can ignore this email.
`, username, code, minutes)

	return s.sendEmail(ctx, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{s.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", s.toEmail, err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	logx.Info("Email sent", "subject", subject, "message_id", messageID)
	return nil
}

// NoopCodeSender drops every code; the API response is the only delivery
type NoopCodeSender struct{}

// SendResetCode does nothing
func (NoopCodeSender) SendResetCode(context.Context, string, string, time.Time) error {
	return nil
}
