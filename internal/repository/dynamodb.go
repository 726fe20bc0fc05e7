package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/timetrack/timeentries/internal/model"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// dynamoItem is the attribute layout of one table item, keyed by "id".
type dynamoItem struct {
	ID        string  `dynamodbav:"id"`
	Project   *string `dynamodbav:"project"`
	Name      *string `dynamodbav:"name"`
	StartTime *string `dynamodbav:"start_time"`
	EndTime   *string `dynamodbav:"end_time"`
	Duration  float64 `dynamodbav:"duration"`
	CreatedAt string  `dynamodbav:"created_at"`
}

func itemFromEntry(e *model.TimeEntry) dynamoItem {
	return dynamoItem{
		ID:        e.ID,
		Project:   e.Project,
		Name:      e.Name,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Duration:  e.Duration,
		CreatedAt: e.CreatedAt,
	}
}

func (i dynamoItem) toEntry() *model.TimeEntry {
	return &model.TimeEntry{
		ID:        i.ID,
		Project:   i.Project,
		Name:      i.Name,
		StartTime: i.StartTime,
		EndTime:   i.EndTime,
		Duration:  i.Duration,
		CreatedAt: i.CreatedAt,
	}
}

// DynamoStore keeps entries in a single DynamoDB table with string hash key "id".
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

// NewDynamoStore wraps an existing client.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

// NewDynamoClient loads the default AWS configuration for region.
// A non-empty endpoint overrides the service URL (DynamoDB Local, LocalStack).
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(endpoint))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg), nil
}

// EnsureTable creates the table with on-demand billing if it does not exist
// and waits until it is active.
func (s *DynamoStore) EnsureTable(ctx context.Context, maxWait time.Duration) (created bool, err error) {
	_, err = s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("failed to describe table: %w", err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create table: %w", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}, maxWait); err != nil {
		return true, fmt.Errorf("failed waiting for table: %w", err)
	}

	return true, nil
}

// Scan reads every page of the table. Items are ordered by created_at then id
// since DynamoDB scans have no defined order.
func (s *DynamoStore) Scan(ctx context.Context) ([]*model.TimeEntry, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})

	entries := make([]*model.TimeEntry, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entries: %w", err)
		}

		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to read entry: %w", err)
		}
		for _, item := range items {
			entries = append(entries, item.toEntry())
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt < entries[j].CreatedAt
		}
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}

// Get retrieves an entry by its id.
func (s *DynamoStore) Get(ctx context.Context, id string) (*model.TimeEntry, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       entryKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrEntryNotFound
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}
	return item.toEntry(), nil
}

// Put writes the whole item, replacing any item with the same id.
func (s *DynamoStore) Put(ctx context.Context, entry *model.TimeEntry) error {
	av, err := attributevalue.MarshalMap(itemFromEntry(entry))
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put entry: %w", err)
	}
	return nil
}

// Update sets every replaceable attribute of the item keyed by id and returns
// the item as stored. A missing item is created; created_at is only written
// when absent.
func (s *DynamoStore) Update(ctx context.Context, id string, fields model.EntryFields) (*model.TimeEntry, error) {
	createdAt := s.now().UTC().Format(model.CreatedAtLayout)

	update := expression.
		Set(expression.Name("project"), expression.Value(fields.Project)).
		Set(expression.Name("name"), expression.Value(fields.Name)).
		Set(expression.Name("start_time"), expression.Value(fields.StartTime)).
		Set(expression.Name("end_time"), expression.Value(fields.EndTime)).
		Set(expression.Name("duration"), expression.Value(fields.Duration)).
		Set(expression.Name("created_at"),
			expression.IfNotExists(expression.Name("created_at"), expression.Value(createdAt)))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       entryKey(id),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}
	return item.toEntry(), nil
}

// Delete removes the item keyed by id. Deleting a missing id is not an error.
func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       entryKey(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// Ping checks that the table is reachable.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	return err
}

func entryKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
