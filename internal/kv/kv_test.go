package kv

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-thumbnail-pro/internal/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "theme", `"dark"`))
	v, ok, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"dark"`, v)

	require.NoError(t, s.Set(ctx, "theme", `"light"`))
	v, _, err = s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, `"light"`, v)

	require.NoError(t, s.Delete(ctx, "theme"))
	_, ok, err = s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

// fakeDynamo keeps items keyed by PK.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	table string
}

func (f *fakeDynamo) pk(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table = *in.TableName
	return &dynamodb.GetItemOutput{Item: f.items[f.pk(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[f.pk(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, f.pk(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamo(t *testing.T) {
	fake := &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
	exerciseStore(t, NewDynamo(fake, "thumbs"))
	assert.Equal(t, "thumbs", fake.table)

	require.NoError(t, NewDynamo(fake, "thumbs").Set(context.Background(), "chatHistory-a.png-1", "[]"))
	item := fake.items["KV#chatHistory-a.png-1"]
	require.NotNil(t, item)
	assert.Equal(t, "VALUE", item["SK"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "[]", item["value"].(*types.AttributeValueMemberS).Value)
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPostgresPool(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	store, err := NewPostgres(ctx, pool)
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestOpenDefaultsToMemory(t *testing.T) {
	store, closeFn, err := Open(context.Background(), config.Config{StoreBackend: config.BackendMemory}, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()

	_, ok := store.(*Memory)
	assert.True(t, ok)
}
