package dynamo_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"cursor-todo/internal/infrastructure/persistence/dynamo"
	"cursor-todo/internal/repository"
	"cursor-todo/internal/repository/repotest"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClient is an in-memory table that understands the expressions the
// store emits: attribute (not) exists conditions and SET updates.
type fakeClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(key map[string]types.AttributeValue) string {
	return key["id"].(*types.AttributeValueMemberS).Value
}

func (f *fakeClient) checkCondition(cond *string, exists bool) error {
	if cond == nil {
		return nil
	}
	wantMissing := strings.Contains(*cond, "attribute_not_exists")
	if wantMissing == exists {
		return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	return nil
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := keyOf(in.Item)
	_, exists := f.items[id]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := keyOf(in.Key)
	item, exists := f.items[id]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}

	updated := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		updated[k] = v
	}
	assignments := strings.TrimPrefix(strings.TrimSpace(*in.UpdateExpression), "SET ")
	for _, assignment := range strings.Split(assignments, ",") {
		parts := strings.SplitN(strings.TrimSpace(assignment), " = ", 2)
		updated[in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
	}
	f.items[id] = updated
	return &dynamodb.UpdateItemOutput{Attributes: updated}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := keyOf(in.Key)
	_, exists := f.items[id]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeClient) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName}}, nil
}

func (f *fakeClient) CreateTable(_ context.Context, _ *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return nil, &types.ResourceInUseException{Message: aws.String("table exists")}
}

func TestTodoStoreContract(t *testing.T) {
	repotest.RunTodoRepositoryContract(t, func(t *testing.T) repository.TodoRepository {
		return dynamo.NewTodoStore(newFakeClient(), "todos", zap.NewNop())
	})
}

func TestTodoStoreConflictOnDuplicateID(t *testing.T) {
	store := dynamo.NewTodoStore(newFakeClient(), "todos", zap.NewNop())
	ctx := context.Background()

	first := repotest.NewTodo("first", 0)
	_, err := store.Create(ctx, first)
	require.NoError(t, err)

	_, err = store.Create(ctx, first)
	assert.True(t, repository.IsConflict(err))
}

func TestTodoStoreMigrateToleratesExistingTable(t *testing.T) {
	store := dynamo.NewTodoStore(newFakeClient(), "todos", zap.NewNop())
	assert.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, store.Ping(context.Background()))
}

func TestTodoStoreAgainstDynamoDBLocal(t *testing.T) {
	endpoint := os.Getenv("DYNAMODB_ENDPOINT")
	if endpoint == "" {
		t.Skip("DYNAMODB_ENDPOINT not set")
	}

	ctx := context.Background()
	client, err := dynamo.NewClient(ctx, "us-east-1", endpoint)
	require.NoError(t, err)

	repotest.RunTodoRepositoryContract(t, func(t *testing.T) repository.TodoRepository {
		store := dynamo.NewTodoStore(client, "todos-test-"+uuid.NewString()[:8], zap.NewNop())
		require.NoError(t, store.Migrate(ctx))
		return store
	})
}
