// dyndb/query.go
package dyndb

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func (qb *QueryBuilder[T]) Index(name string) *QueryBuilder[T] {
	qb.indexName = aws.String(name)
	return qb
}

func (qb *QueryBuilder[T]) KeyEqual(key string, value any) *QueryBuilder[T] {
	cond := expression.KeyEqual(expression.Key(key), expression.Value(value))
	if qb.keyCond == nil {
		qb.keyCond = &cond
	} else {
		tmp := qb.keyCond.And(cond)
		qb.keyCond = &tmp
	}
	return qb
}

// FilterEqual adiciona `field = value`; nil vira `attribute_type(field, NULL)`
// ou ausência do atributo.
func (qb *QueryBuilder[T]) FilterEqual(field string, value any) *QueryBuilder[T] {
	var cond expression.ConditionBuilder
	if value == nil {
		cond = expression.Or(
			expression.AttributeNotExists(expression.Name(field)),
			expression.AttributeType(expression.Name(field), expression.Null),
		)
	} else {
		cond = expression.Equal(expression.Name(field), expression.Value(value))
	}
	if qb.filterCond == nil {
		qb.filterCond = &cond
	} else {
		tmp := qb.filterCond.And(cond)
		qb.filterCond = &tmp
	}
	return qb
}

func (qb *QueryBuilder[T]) Limit(n int32) *QueryBuilder[T] {
	qb.limit = &n
	return qb
}

func (qb *QueryBuilder[T]) LastKey(token string) *QueryBuilder[T] {
	if token == "" {
		return qb
	}
	if data, err := base64.StdEncoding.DecodeString(token); err == nil {
		var raw map[string]map[string]any
		if json.Unmarshal(data, &raw) == nil {
			qb.lastKey = decodeKey(raw)
		}
	}
	return qb
}

// Query inicia uma Query
func (s *dynamoStore[T]) Query() *QueryBuilder[T] {
	return &QueryBuilder[T]{
		store:       s,
		scanForward: aws.Bool(true),
	}
}

// Scan inicia um Scan
func (s *dynamoStore[T]) Scan() *QueryBuilder[T] {
	return &QueryBuilder[T]{
		store:  s,
		isScan: true,
	}
}

// Exec executa uma página da consulta e devolve o token da próxima.
func (qb *QueryBuilder[T]) Exec(ctx context.Context) ([]T, string, error) {
	items, lastKey, err := qb.page(ctx)
	if err != nil {
		return nil, "", err
	}
	return qb.unmarshalResults(items, lastKey)
}

// ExecAll percorre todas as páginas.
func (qb *QueryBuilder[T]) ExecAll(ctx context.Context) ([]T, error) {
	var all []map[string]types.AttributeValue
	for {
		items, lastKey, err := qb.page(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(lastKey) == 0 {
			break
		}
		qb.lastKey = lastKey
	}
	result, _, err := qb.unmarshalResults(all, nil)
	return result, err
}

func (qb *QueryBuilder[T]) page(ctx context.Context) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	builder := expression.NewBuilder()
	if qb.keyCond != nil {
		builder = builder.WithKeyCondition(*qb.keyCond)
	}
	if qb.filterCond != nil {
		builder = builder.WithFilter(*qb.filterCond)
	}

	if qb.keyCond == nil && qb.filterCond == nil {
		return qb.scan(ctx, nil)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}
	if qb.isScan || qb.keyCond == nil {
		return qb.scan(ctx, &expr)
	}
	return qb.query(ctx, expr)
}

func (qb *QueryBuilder[T]) query(ctx context.Context, expr expression.Expression) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	out, err := qb.store.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(qb.store.cfg.TableName),
		IndexName:                 qb.indexName,
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     qb.limit,
		ScanIndexForward:          qb.scanForward,
		ExclusiveStartKey:         qb.lastKey,
	})
	if err != nil {
		return nil, nil, err
	}
	return out.Items, out.LastEvaluatedKey, nil
}

func (qb *QueryBuilder[T]) scan(ctx context.Context, expr *expression.Expression) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	input := &dynamodb.ScanInput{
		TableName:         aws.String(qb.store.cfg.TableName),
		IndexName:         qb.indexName,
		Limit:             qb.limit,
		ExclusiveStartKey: qb.lastKey,
	}
	if expr != nil {
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	out, err := qb.store.client.Scan(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return out.Items, out.LastEvaluatedKey, nil
}

func (qb *QueryBuilder[T]) unmarshalResults(
	items []map[string]types.AttributeValue,
	lastKey map[string]types.AttributeValue,
) ([]T, string, error) {
	result := make([]T, 0, len(items))
	for _, item := range items {
		var t T
		if err := attributevalue.UnmarshalMap(item, &t); err != nil {
			return nil, "", err
		}
		result = append(result, t)
	}

	token := ""
	if len(lastKey) > 0 {
		if b, err := json.Marshal(encodeKey(lastKey)); err == nil {
			token = base64.StdEncoding.EncodeToString(b)
		}
	}

	return result, token, nil
}

// encodeKey serializa as chaves S e N; são os únicos tipos aceitos em chaves
// de tabela neste pacote.
func encodeKey(key map[string]types.AttributeValue) map[string]map[string]any {
	out := make(map[string]map[string]any, len(key))
	for name, av := range key {
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			out[name] = map[string]any{"S": v.Value}
		case *types.AttributeValueMemberN:
			out[name] = map[string]any{"N": v.Value}
		}
	}
	return out
}

func decodeKey(raw map[string]map[string]any) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(raw))
	for name, v := range raw {
		if s, ok := v["S"].(string); ok {
			out[name] = &types.AttributeValueMemberS{Value: s}
		} else if n, ok := v["N"].(string); ok {
			out[name] = &types.AttributeValueMemberN{Value: n}
		}
	}
	return out
}
