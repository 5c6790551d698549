// Package ses delivers email notifications through AWS SES v2.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/evanpardo/ccdwatch/internal/dispatcher"
)

// api is the slice of the SES v2 client the sender uses.
type api interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Client sends notification emails from one verified sender address.
type Client struct {
	client api
	from   string
}

// Compile-time assertion for the dispatcher email surface.
var _ dispatcher.EmailSender = (*Client)(nil)

// NewClient builds an SES sender in the given region. Credentials come from
// the default AWS provider chain.
func NewClient(ctx context.Context, region, from string) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Client{
		client: sesv2.NewFromConfig(awsCfg),
		from:   from,
	}, nil
}

// SendEmail delivers one plain-text notification email.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	}

	if _, err := c.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}

	return nil
}
