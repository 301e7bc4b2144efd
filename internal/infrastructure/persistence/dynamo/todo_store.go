// Package dynamo implements the todo repository on Amazon DynamoDB.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"cursor-todo/internal/domain/todo"
	"cursor-todo/internal/repository"
)

const attrID = "id"

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	dynamodb.ScanAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ repository.TodoRepository = (*TodoStore)(nil)

// TodoStore keeps one item per todo, keyed by id.
type TodoStore struct {
	client Client
	table  string
	logger *zap.Logger
}

type todoItem struct {
	ID        string    `dynamodbav:"id"`
	Title     string    `dynamodbav:"title"`
	Completed bool      `dynamodbav:"completed"`
	CreatedAt time.Time `dynamodbav:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updatedAt"`
}

func fromDomain(t *todo.Todo) todoItem {
	return todoItem{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func (i todoItem) toDomain() *todo.Todo {
	return &todo.Todo{
		ID:        i.ID,
		Title:     i.Title,
		Completed: i.Completed,
		CreatedAt: i.CreatedAt.UTC(),
		UpdatedAt: i.UpdatedAt.UTC(),
	}
}

// NewClient builds a DynamoDB client from the default credential chain.
// A non-empty endpoint targets DynamoDB Local or another compatible server.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewTodoStore creates a store for the given table.
func NewTodoStore(client Client, table string, logger *zap.Logger) *TodoStore {
	return &TodoStore{client: client, table: table, logger: logger}
}

func (s *TodoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

// Migrate creates the table with on-demand billing when it does not exist.
func (s *TodoStore) Migrate(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	s.logger.Info("database schema ready", zap.String("table", s.table))
	return nil
}

// Create puts a new item, failing if the id is taken
func (s *TodoStore) Create(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	item, err := attributevalue.MarshalMap(fromDomain(t))
	if err != nil {
		return nil, fmt.Errorf("marshal todo: %w", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return nil, repository.NewConflict("todo", t.ID, "already exists")
	}
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// FindByID retrieves a todo by ID
func (s *TodoStore) FindByID(ctx context.Context, id string) (*todo.Todo, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, repository.NewNotFound("todo", id)
	}

	var item todoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal todo %s: %w", id, err)
	}
	return item.toDomain(), nil
}

// FindAll scans the table and sorts newest first.
func (s *TodoStore) FindAll(ctx context.Context) ([]*todo.Todo, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:      aws.String(s.table),
		ConsistentRead: aws.Bool(true),
	})

	var out []*todo.Todo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var items []todoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal todos: %w", err)
		}
		for _, item := range items {
			out = append(out, item.toDomain())
		}
	}

	todo.SortNewestFirst(out)
	if out == nil {
		out = []*todo.Todo{}
	}
	return out, nil
}

// Update sets title, completed and updatedAt on an existing item
func (s *TodoStore) Update(ctx context.Context, t *todo.Todo) (*todo.Todo, error) {
	item := fromDomain(t)
	update := expression.Set(expression.Name("title"), expression.Value(item.Title)).
		Set(expression.Name("completed"), expression.Value(item.Completed)).
		Set(expression.Name("updatedAt"), expression.Value(item.UpdatedAt.Format(time.RFC3339Nano)))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(attrID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(t.ID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, repository.NewNotFound("todo", t.ID)
	}
	if err != nil {
		return nil, err
	}

	var updated todoItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("unmarshal todo %s: %w", t.ID, err)
	}
	return updated.toDomain(), nil
}

// Delete removes the item, reporting NotFound when nothing was there
func (s *TodoStore) Delete(ctx context.Context, id string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(attrID))).
		Build()
	if err != nil {
		return fmt.Errorf("build condition: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      s.key(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return repository.NewNotFound("todo", id)
	}
	return err
}

// Ping describes the table.
func (s *TodoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	return err
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
