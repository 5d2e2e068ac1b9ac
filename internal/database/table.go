package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrItemNotFound = errors.New("item not found")

// Key is a primary key in attribute form.
type Key = map[string]types.AttributeValue

func StringKey(attr, value string) Key {
	return Key{attr: String(value)}
}

func String(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

// StringList encodes values as an L of S, which unlike an SS may be empty.
func StringList(values []string) types.AttributeValue {
	list := make([]types.AttributeValue, 0, len(values))
	for _, v := range values {
		list = append(list, String(v))
	}
	return &types.AttributeValueMemberL{Value: list}
}

// Update builds a SET expression with positional placeholders, so attribute
// names never clash with reserved words.
type Update struct {
	clauses []string
	names   map[string]string
	values  map[string]types.AttributeValue
}

func (u *Update) Set(attr string, value types.AttributeValue) *Update {
	if u.names == nil {
		u.names = make(map[string]string)
		u.values = make(map[string]types.AttributeValue)
	}
	i := len(u.clauses)
	name, placeholder := fmt.Sprintf("#a%d", i), fmt.Sprintf(":v%d", i)
	u.clauses = append(u.clauses, name+" = "+placeholder)
	u.names[name] = attr
	u.values[placeholder] = value
	return u
}

func (u *Update) Expression() string {
	return "SET " + strings.Join(u.clauses, ", ")
}

// Table binds the client to a single table.
type Table struct {
	client *DynamoDBClient
	name   string
}

func (c *DynamoDBClient) Table(name string) Table {
	return Table{client: c, name: name}
}

func (t Table) Name() string {
	return t.name
}

func (t Table) Put(ctx context.Context, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal %s item: %w", t.name, err)
	}
	_, err = t.client.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", t.name, err)
	}
	return nil
}

// Get unmarshals the item under key into out, or wraps ErrItemNotFound.
func (t Table) Get(ctx context.Context, key Key, out interface{}) error {
	res, err := t.client.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("get %s: %w", t.name, err)
	}
	if res.Item == nil {
		return fmt.Errorf("%s: %w", t.name, ErrItemNotFound)
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal %s item: %w", t.name, err)
	}
	return nil
}

// Update applies u to the item under key. DynamoDB creates the item when the
// key is absent.
func (t Table) Update(ctx context.Context, key Key, u *Update) error {
	if u == nil || len(u.clauses) == 0 {
		return fmt.Errorf("update %s: empty update", t.name)
	}
	_, err := t.client.svc.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.name),
		Key:                       key,
		UpdateExpression:          aws.String(u.Expression()),
		ExpressionAttributeNames:  u.names,
		ExpressionAttributeValues: u.values,
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	return nil
}

func (t Table) Delete(ctx context.Context, key Key) error {
	_, err := t.client.svc.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, err)
	}
	return nil
}

// Page is one scan page. Next is nil on the last page.
type Page struct {
	Items []map[string]types.AttributeValue
	Next  Key
}

func (t Table) ScanPage(ctx context.Context, limit int32, start Key) (Page, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	input := &dynamodb.ScanInput{
		TableName: aws.String(t.name),
		Limit:     aws.Int32(limit),
	}
	if len(start) > 0 {
		input.ExclusiveStartKey = start
	}
	out, err := t.client.svc.Scan(ctx, input)
	if err != nil {
		return Page{}, fmt.Errorf("scan %s: %w", t.name, err)
	}
	page := Page{Items: out.Items}
	if len(out.LastEvaluatedKey) > 0 {
		page.Next = out.LastEvaluatedKey
	}
	return page, nil
}

// ScanAll walks every page of the table.
func (t Table) ScanAll(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	paginator := dynamodb.NewScanPaginator(t.client.svc, &dynamodb.ScanInput{
		TableName: aws.String(t.name),
	})
	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		items = append(items, out.Items...)
	}
	return items, nil
}

func (t Table) Describe(ctx context.Context) (*types.TableDescription, error) {
	out, err := t.client.svc.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.name)})
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", t.name, err)
	}
	return out.Table, nil
}
