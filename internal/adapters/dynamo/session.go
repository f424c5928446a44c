package dynamo

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// DefaultSDKRetries is how many times the SDK itself retries ephemeral AWS
// errors before a call is reported as failed.
const DefaultSDKRetries = 10

// SessionOptions selects the AWS account and region.
type SessionOptions struct {
	Region        string
	Profile       string
	MaxSDKRetries int
}

// NewSession creates an AWS session from opts.
// Empty fields fall back to the SDK's default credential and region chain.
func NewSession(opts SessionOptions) (*session.Session, error) {
	retries := opts.MaxSDKRetries
	if retries <= 0 {
		retries = DefaultSDKRetries
	}
	config := &aws.Config{
		Retryer: client.DefaultRetryer{NumMaxRetries: retries},
	}
	if opts.Profile != "" {
		config.Credentials = credentials.NewSharedCredentials("", opts.Profile)
	}
	if opts.Region != "" {
		config.Region = aws.String(opts.Region)
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}
	return sess, nil
}

// NewClient creates a DynamoDB client on sess. A non-empty endpoint overrides
// the service endpoint, e.g. http://localhost:8000 for dynamodb-local.
func NewClient(sess *session.Session, endpoint string) *dynamodb.DynamoDB {
	if endpoint != "" {
		return dynamodb.New(sess, aws.NewConfig().WithEndpoint(endpoint))
	}
	return dynamodb.New(sess)
}
