package resource

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// AutoScalingAPI defines the Auto Scaling operations required to locate groups.
type AutoScalingAPI interface {
	DescribeAutoScalingGroups(
		ctx context.Context,
		input *autoscaling.DescribeAutoScalingGroupsInput,
		optFns ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error)
}

// AutoScalingLocator finds Auto Scaling groups and their desired capacity.
type AutoScalingLocator struct {
	client AutoScalingAPI
}

func NewAutoScalingLocator(client AutoScalingAPI) *AutoScalingLocator {
	return &AutoScalingLocator{client: client}
}

func (l *AutoScalingLocator) List(ctx context.Context, names []string) ([]Resource, error) {
	ctx, span := tracer.Start(ctx, "resource.list_autoscaling_groups")
	defer span.End()

	wanted := nameSet(names)

	paginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(l.client, &autoscaling.DescribeAutoScalingGroupsInput{})

	var found []Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("cannot describe auto scaling groups: %w", err)
		}

		for _, g := range page.AutoScalingGroups {
			name := aws.ToString(g.AutoScalingGroupName)
			if !wanted[name] {
				continue
			}
			found = append(found, Resource{
				Name:      name,
				LiveValue: decimal.NewFromInt32(aws.ToInt32(g.DesiredCapacity)),
			})
		}
	}

	span.SetAttributes(attribute.Int("resource.count", len(found)))

	return found, nil
}
