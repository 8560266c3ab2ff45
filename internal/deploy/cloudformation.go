package deploy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ab0utbla-k/cloudwatch-alarm-generator/internal/stack"
)

const (
	// MaxTemplateBodySize is the largest template CloudFormation accepts inline.
	MaxTemplateBodySize = 51200

	defaultWaitTimeout = 30 * time.Minute
	groupTagKey        = "alarmgen:group"
)

var (
	ErrTemplateTooLarge = errors.New("template exceeds inline size limit and no template bucket is configured")

	errStackBusy = errors.New("stack operation in progress")
)

// CloudFormationAPI defines the CloudFormation operations required for stack deployment.
type CloudFormationAPI interface {
	DescribeStacks(
		ctx context.Context,
		input *cloudformation.DescribeStacksInput,
		optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)

	CreateStack(
		ctx context.Context,
		input *cloudformation.CreateStackInput,
		optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)

	UpdateStack(
		ctx context.Context,
		input *cloudformation.UpdateStackInput,
		optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)

	DeleteStack(
		ctx context.Context,
		input *cloudformation.DeleteStackInput,
		optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
}

// S3API defines the S3 operations required for uploading large templates.
type S3API interface {
	PutObject(
		ctx context.Context,
		input *s3.PutObjectInput,
		optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// CloudFormationDeployer creates or updates one CloudFormation stack per
// alerting group and waits for the operation to finish.
type CloudFormationDeployer struct {
	cf     CloudFormationAPI
	s3     S3API
	bucket string
	logger *slog.Logger

	waitTimeout time.Duration
	newBackOff  func() backoff.BackOff
}

func NewCloudFormationDeployer(
	cf CloudFormationAPI,
	s3Client S3API,
	bucket string,
	logger *slog.Logger,
) *CloudFormationDeployer {
	return &CloudFormationDeployer{
		cf:          cf,
		s3:          s3Client,
		bucket:      bucket,
		logger:      logger,
		waitTimeout: defaultWaitTimeout,
		newBackOff:  defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Second
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = defaultWaitTimeout
	return b
}

type templateSource struct {
	body *string
	url  *string
}

func (d *CloudFormationDeployer) Deploy(ctx context.Context, s *stack.Stack) error {
	ctx, span := tracer.Start(ctx, "deploy.cloudformation")
	defer span.End()
	span.SetAttributes(
		attribute.String("stack.name", s.Name),
		attribute.Int("stack.alarms", len(s.Alarms)),
	)

	body, err := s.Template()
	if err != nil {
		return err
	}

	src, err := d.templateSource(ctx, s.Name, body)
	if err != nil {
		return err
	}

	status, err := d.settledStatus(ctx, s.Name)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("stack.status", string(status)))

	switch status {
	case "":
		return d.create(ctx, s, src)

	case types.StackStatusRollbackComplete:
		// A stack whose first create rolled back cannot be updated.
		d.logger.WarnContext(
			ctx,
			"stack left in ROLLBACK_COMPLETE; recreating",
			slog.String("stack", s.Name),
		)
		if err := d.delete(ctx, s.Name); err != nil {
			return err
		}
		return d.create(ctx, s, src)

	default:
		return d.update(ctx, s, src)
	}
}

func (d *CloudFormationDeployer) templateSource(ctx context.Context, name string, body []byte) (templateSource, error) {
	if len(body) <= MaxTemplateBodySize {
		return templateSource{body: aws.String(string(body))}, nil
	}

	if d.bucket == "" {
		return templateSource{}, fmt.Errorf("cannot deploy stack %q (%d bytes): %w", name, len(body), ErrTemplateTooLarge)
	}

	key := fmt.Sprintf("%s/%x.json", name, sha256.Sum256(body))

	_, err := d.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return templateSource{}, fmt.Errorf("cannot upload template to s3://%s/%s: %w", d.bucket, key, err)
	}

	return templateSource{url: aws.String(fmt.Sprintf("https://%s.s3.amazonaws.com/%s", d.bucket, key))}, nil
}

// status returns "" when the stack does not exist.
func (d *CloudFormationDeployer) status(ctx context.Context, name string) (types.StackStatus, error) {
	out, err := d.cf.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if isAPIError(err, "ValidationError", "does not exist") {
			return "", nil
		}
		return "", fmt.Errorf("cannot describe stack %q: %w", name, err)
	}

	if len(out.Stacks) == 0 {
		return "", nil
	}

	return out.Stacks[0].StackStatus, nil
}

// settledStatus polls until no operation is in progress on the stack.
func (d *CloudFormationDeployer) settledStatus(ctx context.Context, name string) (types.StackStatus, error) {
	status, err := backoff.RetryWithData(func() (types.StackStatus, error) {
		status, err := d.status(ctx, name)
		if err != nil {
			return "", backoff.Permanent(err)
		}

		if strings.HasSuffix(string(status), "_IN_PROGRESS") {
			d.logger.InfoContext(
				ctx,
				"waiting for stack operation to finish",
				slog.String("stack", name),
				slog.String("status", string(status)),
			)
			return status, errStackBusy
		}

		return status, nil
	}, backoff.WithContext(d.newBackOff(), ctx))
	if err != nil {
		return "", fmt.Errorf("cannot wait for stack %q to settle: %w", name, err)
	}

	return status, nil
}

func (d *CloudFormationDeployer) create(ctx context.Context, s *stack.Stack, src templateSource) error {
	_, err := d.cf.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(s.Name),
		TemplateBody: src.body,
		TemplateURL:  src.url,
		Tags:         tags(s),
	})
	if err != nil {
		return fmt.Errorf("cannot create stack %q: %w", s.Name, err)
	}

	waiter := cloudformation.NewStackCreateCompleteWaiter(d.cf)
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(s.Name)}, d.waitTimeout); err != nil {
		return fmt.Errorf("cannot wait for stack %q creation: %w", s.Name, err)
	}

	d.logger.InfoContext(ctx, "stack created", slog.String("stack", s.Name), slog.Int("alarms", len(s.Alarms)))

	return nil
}

func (d *CloudFormationDeployer) update(ctx context.Context, s *stack.Stack, src templateSource) error {
	_, err := d.cf.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(s.Name),
		TemplateBody: src.body,
		TemplateURL:  src.url,
		Tags:         tags(s),
	})
	if err != nil {
		if isAPIError(err, "ValidationError", "No updates are to be performed") {
			d.logger.InfoContext(ctx, "stack already up to date", slog.String("stack", s.Name))
			return nil
		}
		return fmt.Errorf("cannot update stack %q: %w", s.Name, err)
	}

	waiter := cloudformation.NewStackUpdateCompleteWaiter(d.cf)
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(s.Name)}, d.waitTimeout); err != nil {
		return fmt.Errorf("cannot wait for stack %q update: %w", s.Name, err)
	}

	d.logger.InfoContext(ctx, "stack updated", slog.String("stack", s.Name), slog.Int("alarms", len(s.Alarms)))

	return nil
}

func (d *CloudFormationDeployer) delete(ctx context.Context, name string) error {
	_, err := d.cf.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: aws.String(name)})
	if err != nil {
		return fmt.Errorf("cannot delete stack %q: %w", name, err)
	}

	waiter := cloudformation.NewStackDeleteCompleteWaiter(d.cf)
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)}, d.waitTimeout); err != nil {
		return fmt.Errorf("cannot wait for stack %q deletion: %w", name, err)
	}

	return nil
}

func tags(s *stack.Stack) []types.Tag {
	return []types.Tag{{
		Key:   aws.String(groupTagKey),
		Value: aws.String(s.Group),
	}}
}

func isAPIError(err error, code, fragment string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) &&
		apiErr.ErrorCode() == code &&
		strings.Contains(apiErr.ErrorMessage(), fragment)
}
