// Package notify sends operational email through Postbox (SESv2 API).
// Delivery is best-effort: a lost notification never fails the request
// that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	appconfig "github.com/learnloop/video-backend/internal/config"
)

type Client struct {
	sesClient *sesv2.Client
	sender    string
	opsEmail  string
	log       *slog.Logger
}

// NewClient builds the Postbox client. When the endpoint or recipient is
// not configured it returns a disabled client whose sends are no-ops.
func NewClient(ctx context.Context, appCfg *appconfig.Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	if appCfg.PostboxEndpoint == "" || appCfg.OpsEmail == "" {
		return &Client{log: log}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(appCfg.PostboxRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			appCfg.PostboxAccessKeyID, appCfg.PostboxSecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load postbox config: %w", err)
	}

	sesClient := sesv2.NewFromConfig(cfg, func(o *sesv2.Options) {
		o.BaseEndpoint = aws.String(appCfg.PostboxEndpoint)
	})

	return &Client{
		sesClient: sesClient,
		sender:    appCfg.EmailFrom,
		opsEmail:  appCfg.OpsEmail,
		log:       log,
	}, nil
}

// TranscodeCompleted tells ops that a content item finished processing.
func (c *Client) TranscodeCompleted(ctx context.Context, videoID, title string) {
	subject := fmt.Sprintf("Transcode completed: %s", title)
	body := fmt.Sprintf("Video %s (%q) finished processing and is ready for playback.", videoID, title)
	c.send(ctx, subject, body)
}

// TranscodeFailed tells ops that a content item failed processing.
func (c *Client) TranscodeFailed(ctx context.Context, videoID, title string) {
	subject := fmt.Sprintf("Transcode FAILED: %s", title)
	body := fmt.Sprintf("Video %s (%q) failed processing. Check the vendor dashboard.", videoID, title)
	c.send(ctx, subject, body)
}

func (c *Client) send(ctx context.Context, subject, body string) {
	if c.sesClient == nil {
		return
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: &c.sender,
		Destination: &sestypes.Destination{
			ToAddresses: []string{c.opsEmail},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: &subject},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: &body},
				},
			},
		},
	}

	if _, err := c.sesClient.SendEmail(ctx, input); err != nil {
		c.log.Warn("failed to send notification email", "subject", subject, "error", err)
	}
}
