package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	astypes "github.com/aws/aws-sdk-go-v2/service/autoscaling/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newGroup(name string, desired int32) astypes.AutoScalingGroup {
	return astypes.AutoScalingGroup{
		AutoScalingGroupName: aws.String(name),
		DesiredCapacity:      aws.Int32(desired),
	}
}

func TestAutoScalingLocator_FiltersAndPaginates(t *testing.T) {
	mockAS := new(AutoScalingAPIMock)
	locator := NewAutoScalingLocator(mockAS)

	mockAS.On("DescribeAutoScalingGroups",
		mock.Anything,
		mock.MatchedBy(func(in *autoscaling.DescribeAutoScalingGroupsInput) bool { return in.NextToken == nil }),
		mock.AnythingOfType("[]func(*autoscaling.Options)"),
	).Return(&autoscaling.DescribeAutoScalingGroupsOutput{
		AutoScalingGroups: []astypes.AutoScalingGroup{newGroup("web", 40), newGroup("other", 3)},
		NextToken:         aws.String("page-2"),
	}, nil).Once()

	mockAS.On("DescribeAutoScalingGroups",
		mock.Anything,
		mock.MatchedBy(func(in *autoscaling.DescribeAutoScalingGroupsInput) bool {
			return aws.ToString(in.NextToken) == "page-2"
		}),
		mock.AnythingOfType("[]func(*autoscaling.Options)"),
	).Return(&autoscaling.DescribeAutoScalingGroupsOutput{
		AutoScalingGroups: []astypes.AutoScalingGroup{newGroup("worker", 6)},
	}, nil).Once()

	found, err := locator.List(context.Background(), []string{"web", "worker", "missing"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "web", found[0].Name)
	assert.True(t, decimal.NewFromInt(40).Equal(found[0].LiveValue))
	assert.Equal(t, "worker", found[1].Name)
	assert.True(t, decimal.NewFromInt(6).Equal(found[1].LiveValue))
	mockAS.AssertExpectations(t)
}

func TestAutoScalingLocator_Error(t *testing.T) {
	mockAS := new(AutoScalingAPIMock)
	locator := NewAutoScalingLocator(mockAS)
	expectedError := errors.New("access denied")

	mockAS.On("DescribeAutoScalingGroups", mock.Anything, mock.Anything, mock.Anything).
		Return((*autoscaling.DescribeAutoScalingGroupsOutput)(nil), expectedError).Once()

	_, err := locator.List(context.Background(), []string{"web"})
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedError)
	assert.Contains(t, err.Error(), "cannot describe auto scaling groups")
}

func TestDynamoDBLocator(t *testing.T) {
	mockDB := new(DynamoDBAPIMock)
	locator := NewDynamoDBLocator(mockDB)

	mockDB.On("ListTables", mock.Anything, mock.AnythingOfType("*dynamodb.ListTablesInput"), mock.Anything).
		Return(&dynamodb.ListTablesOutput{TableNames: []string{"orders", "sessions", "gone", "unrelated"}}, nil).Once()

	mockDB.On("DescribeTable", mock.Anything, &dynamodb.DescribeTableInput{TableName: aws.String("orders")}, mock.Anything).
		Return(&dynamodb.DescribeTableOutput{Table: &ddbtypes.TableDescription{
			TableName: aws.String("orders"),
			ProvisionedThroughput: &ddbtypes.ProvisionedThroughputDescription{
				ReadCapacityUnits: aws.Int64(250),
			},
		}}, nil).Once()

	mockDB.On("DescribeTable", mock.Anything, &dynamodb.DescribeTableInput{TableName: aws.String("sessions")}, mock.Anything).
		Return(&dynamodb.DescribeTableOutput{Table: &ddbtypes.TableDescription{
			TableName: aws.String("sessions"),
		}}, nil).Once()

	mockDB.On("DescribeTable", mock.Anything, &dynamodb.DescribeTableInput{TableName: aws.String("gone")}, mock.Anything).
		Return((*dynamodb.DescribeTableOutput)(nil), &ddbtypes.ResourceNotFoundException{Message: aws.String("gone")}).Once()

	found, err := locator.List(context.Background(), []string{"orders", "sessions", "gone"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "orders", found[0].Name)
	assert.True(t, decimal.NewFromInt(250).Equal(found[0].LiveValue))
	assert.Equal(t, "sessions", found[1].Name)
	assert.True(t, found[1].LiveValue.IsZero())
	mockDB.AssertExpectations(t)
}

func TestDynamoDBLocator_DescribeError(t *testing.T) {
	mockDB := new(DynamoDBAPIMock)
	locator := NewDynamoDBLocator(mockDB)
	expectedError := errors.New("internal error")

	mockDB.On("ListTables", mock.Anything, mock.Anything, mock.Anything).
		Return(&dynamodb.ListTablesOutput{TableNames: []string{"orders"}}, nil).Once()
	mockDB.On("DescribeTable", mock.Anything, mock.Anything, mock.Anything).
		Return((*dynamodb.DescribeTableOutput)(nil), expectedError).Once()

	_, err := locator.List(context.Background(), []string{"orders"})
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedError)
	assert.Contains(t, err.Error(), `cannot describe dynamodb table "orders"`)
}
