package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/BradenHooton/accounts/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// sesSender is the subset of the SES client used here
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends a welcome e-mail through AWS SES after registration
type SESNotifier struct {
	client      sesSender
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewSESNotifier creates a notifier using the default AWS credential chain
func NewSESNotifier(ctx context.Context, region, fromAddress, baseURL string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESNotifier{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

func (n *SESNotifier) NotifyRegistered(ctx context.Context, user *models.User) error {
	textBody := fmt.Sprintf(`Hello %s,

Your account has been created. You can sign in at:
%s

This is an automated message. Please do not reply to this email.
`, user.FirstName, n.baseURL)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <p>Hello %s,</p>
    <p>Your account has been created. You can sign in at <a href="%s">%s</a>.</p>
    <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`, html.EscapeString(user.FirstName), n.baseURL, n.baseURL)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{user.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Welcome to your new account"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("welcome email sent",
		slog.Int64("user_id", user.ID),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
