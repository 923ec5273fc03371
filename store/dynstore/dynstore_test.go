package dynstore

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-crud-toolkit/dyndb"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func widgetModel() *schema.Model {
	return &schema.Model{
		App:  "shop",
		Name: "widget",
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, Auto: true},
			{Name: "name", Type: schema.TypeString},
			{Name: "price", Type: schema.TypeInteger},
			{Name: "created", Type: schema.TypeDateTime, Nullable: true},
		},
	}
}

func item(id, name, price string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":      &types.AttributeValueMemberN{Value: id},
		"name":    &types.AttributeValueMemberS{Value: name},
		"price":   &types.AttributeValueMemberN{Value: price},
		"created": &types.AttributeValueMemberNULL{Value: true},
	}
}

func TestStore_Insert(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{TablePrefix: "dev_"})

	client.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return aws.ToString(in.TableName) == DefaultSequenceTable
	})).Return(&dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{"seq": &types.AttributeValueMemberN{Value: "3"}},
	}, nil)
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		id, ok := in.Item["id"].(*types.AttributeValueMemberN)
		return aws.ToString(in.TableName) == "dev_shop_widget" && ok && id.Value == "3" &&
			in.ConditionExpression != nil
	})).Return(&dynamodb.PutItemOutput{}, nil)

	rec, err := s.Insert(context.Background(), widgetModel(), schema.Record{"name": "bolt", "price": int64(5), "created": nil})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec["id"])
	assert.Equal(t, "bolt", rec["name"])
	client.AssertExpectations(t)
}

func TestStore_InsertDuplicate(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{})
	model := &schema.Model{
		App:  "shop",
		Name: "coupon",
		Fields: []schema.Field{
			{Name: "code", Type: schema.TypeString, PrimaryKey: true},
		},
	}

	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")})

	_, err := s.Insert(context.Background(), model, schema.Record{"code": "SPRING"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestStore_Get(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{})

	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		id, ok := in.Key["id"].(*types.AttributeValueMemberN)
		return ok && id.Value == "1"
	})).Return(&dynamodb.GetItemOutput{Item: item("1", "bolt", "5")}, nil)
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	rec, err := s.Get(context.Background(), widgetModel(), int64(1))
	require.NoError(t, err)
	assert.Equal(t, schema.Record{"id": int64(1), "name": "bolt", "price": int64(5), "created": nil}, rec)

	_, err = s.Get(context.Background(), widgetModel(), int64(2))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ListFiltersAndSorts(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{})

	client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return aws.ToString(in.TableName) == "shop_widget" && aws.ToString(in.FilterExpression) == "#0 = :0"
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{item("3", "screw", "5"), item("1", "bolt", "5")},
	}, nil)

	recs, err := s.List(context.Background(), widgetModel(), store.Filter{
		Conditions: []store.Condition{{Field: "price", Value: int64(5)}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0]["id"])
	assert.Equal(t, int64(3), recs[1]["id"])
}

func TestStore_ListCorruptRow(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{})

	bad := item("1", "bolt", "5")
	bad["created"] = &types.AttributeValueMemberS{Value: "yesterday"}
	client.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{bad},
	}, nil)

	_, err := s.List(context.Background(), widgetModel(), store.Filter{})
	var corrupt *store.CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, "created", corrupt.Field)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{})
	created := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		c, ok := in.Item["created"].(*types.AttributeValueMemberS)
		return ok && c.Value == "2024-05-01T10:30:00Z" &&
			aws.ToString(in.ConditionExpression) == "attribute_exists (#0)"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()
	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}).Once()

	rec, err := s.Update(context.Background(), widgetModel(), int64(1),
		schema.Record{"name": "nut", "price": int64(7), "created": created})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec["id"])

	_, err = s.Update(context.Background(), widgetModel(), int64(9), schema.Record{"name": "nut"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	client.On("DeleteItem", mock.Anything, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil)
	assert.ErrorIs(t, s.Delete(context.Background(), widgetModel(), int64(9)), store.ErrNotFound)
	client.AssertExpectations(t)
}

func TestStore_ListByKeyQueries(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{})

	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.TableName) == "shop_widget" && in.IndexName == nil &&
			aws.ToString(in.KeyConditionExpression) != "" && aws.ToString(in.FilterExpression) != ""
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{item("2", "nut", "5")},
	}, nil).Once()

	recs, err := s.List(context.Background(), widgetModel(), store.Filter{
		Conditions: []store.Condition{{Field: "price", Value: int64(5)}, {Field: "id", Value: int64(2)}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "nut", recs[0]["name"])
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
}

func TestStore_ListUsesConfiguredIndex(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{Indexes: map[string]map[string]string{
		"shop.widget": {"name": "name-index"},
	}})

	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == "name-index" && in.FilterExpression == nil
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{item("1", "bolt", "5")},
	}, nil).Once()

	recs, err := s.List(context.Background(), widgetModel(), store.Filter{
		Conditions: []store.Condition{{Field: "name", Value: "bolt"}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	client.AssertExpectations(t)

	t.Run("null value falls back to scan", func(t *testing.T) {
		client.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{}, nil).Once()
		recs, err := s.List(context.Background(), widgetModel(), store.Filter{
			Conditions: []store.Condition{{Field: "name", Value: nil}},
		})
		require.NoError(t, err)
		assert.Empty(t, recs)
		client.AssertExpectations(t)
	})
}

func TestStore_ListPaged(t *testing.T) {
	client := new(dyndb.MockDynamoClient)
	s := New(client, Options{PageSize: 1})
	lastKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberN{Value: "3"}}

	client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return aws.ToInt32(in.Limit) == 1 && in.ExclusiveStartKey == nil
	})).Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{item("3", "screw", "5")},
		LastEvaluatedKey: lastKey,
	}, nil).Once()
	client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return aws.ToInt32(in.Limit) == 1 && assert.ObjectsAreEqual(lastKey, in.ExclusiveStartKey)
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{item("1", "bolt", "5")},
	}, nil).Once()

	recs, err := s.List(context.Background(), widgetModel(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0]["id"])
	assert.Equal(t, int64(3), recs[1]["id"])
	client.AssertExpectations(t)
}
