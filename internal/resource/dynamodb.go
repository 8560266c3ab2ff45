package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// DynamoDBAPI defines the DynamoDB operations required to locate tables.
type DynamoDBAPI interface {
	ListTables(
		ctx context.Context,
		input *dynamodb.ListTablesInput,
		optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)

	DescribeTable(
		ctx context.Context,
		input *dynamodb.DescribeTableInput,
		optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoDBLocator finds tables and their provisioned read capacity.
// On-demand tables report a live value of zero.
type DynamoDBLocator struct {
	client DynamoDBAPI
}

func NewDynamoDBLocator(client DynamoDBAPI) *DynamoDBLocator {
	return &DynamoDBLocator{client: client}
}

func (l *DynamoDBLocator) List(ctx context.Context, names []string) ([]Resource, error) {
	ctx, span := tracer.Start(ctx, "resource.list_dynamodb_tables")
	defer span.End()

	wanted := nameSet(names)

	paginator := dynamodb.NewListTablesPaginator(l.client, &dynamodb.ListTablesInput{})

	var found []Resource
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("cannot list dynamodb tables: %w", err)
		}

		for _, name := range page.TableNames {
			if !wanted[name] {
				continue
			}

			out, err := l.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
			if err != nil {
				// Deleted between ListTables and DescribeTable.
				var notFound *types.ResourceNotFoundException
				if errors.As(err, &notFound) {
					continue
				}
				return nil, fmt.Errorf("cannot describe dynamodb table %q: %w", name, err)
			}

			found = append(found, Resource{
				Name:      name,
				LiveValue: readCapacity(out.Table),
			})
		}
	}

	span.SetAttributes(attribute.Int("resource.count", len(found)))

	return found, nil
}

func readCapacity(table *types.TableDescription) decimal.Decimal {
	if table == nil || table.ProvisionedThroughput == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(aws.ToInt64(table.ProvisionedThroughput.ReadCapacityUnits))
}
