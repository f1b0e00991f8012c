package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailSender is the subset of the SES v2 client the notifier uses.
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier emails the invite token through Amazon SES.
type SESNotifier struct {
	client     EmailSender
	fromEmail  string
	fromName   string
	appBaseURL string
}

// NewSESNotifier loads the default AWS credential chain for region.
func NewSESNotifier(ctx context.Context, region, fromEmail, fromName, appBaseURL string) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	slog.Info("invite email enabled", "from", fromEmail, "region", region)
	return NewSESNotifierWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL), nil
}

func NewSESNotifierWithClient(client EmailSender, fromEmail, fromName, appBaseURL string) *SESNotifier {
	return &SESNotifier{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
	}
}

func (n *SESNotifier) InviteCreated(ctx context.Context, invite Invite) error {
	subject := fmt.Sprintf("You're invited to join %s", invite.FamilyName)
	link := fmt.Sprintf("%s/?invite=%s", n.appBaseURL, url.QueryEscape(invite.Token))

	textBody := fmt.Sprintf(`Hi,

You've been invited to join the %s family task list.

Sign in and paste this invite token into "Join Family":
%s

Or open: %s
`, invite.FamilyName, invite.Token, link)

	htmlBody := fmt.Sprintf(`<p>Hi,</p>
<p>You've been invited to join the <strong>%s</strong> family task list.</p>
<p>Sign in and paste this invite token into "Join Family":</p>
<p><code>%s</code></p>
<p><a href="%s">Open the app</a></p>
`, html.EscapeString(invite.FamilyName), html.EscapeString(invite.Token), html.EscapeString(link))

	from := n.fromEmail
	if n.fromName != "" {
		from = fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail)
	}

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{invite.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send invite email: %w", err)
	}
	return nil
}
