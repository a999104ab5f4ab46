package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/decoders-hk/centre-assistant-go/internal/intent"
)

// Retention is how long pending items live before DynamoDB TTL removes them.
const Retention = 30 * 24 * time.Hour

// DDBAPI is the subset of the DynamoDB client used by DynamoStore.
type DDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoStore keeps pending items in a table keyed by date (hash) and
// "session#ts" (range).
type DynamoStore struct {
	client    DDBAPI
	tableName string
	now       func() time.Time
}

// NewDynamoStore returns a store over tableName.
func NewDynamoStore(client DDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, now: time.Now}
}

// Ping checks connectivity by describing the table.
func (s *DynamoStore) Ping(ctx context.Context) error {
	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &s.tableName}); err != nil {
		return fmt.Errorf("dynamodb ping failed: %w", err)
	}
	return nil
}

// EnsureTable creates the table if it does not exist. Used against local
// DynamoDB; production tables are provisioned ahead of time.
func (s *DynamoStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &s.tableName,
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String("date"), KeyType: ddbtypes.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: ddbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String("date"), AttributeType: ddbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		var riue *ddbtypes.ResourceInUseException
		if errors.As(err, &riue) {
			return nil
		}
		return fmt.Errorf("creating table %s: %w", s.tableName, err)
	}
	return nil
}

// itemRecord is the stored shape of an Item. Flags keep the snake_case keys
// used in chat responses.
type itemRecord struct {
	Date      string         `dynamodbav:"date"`
	SK        string         `dynamodbav:"sk"`
	SessionID string         `dynamodbav:"session_id"`
	TS        int64          `dynamodbav:"ts"`
	Message   string         `dynamodbav:"message"`
	Lang      string         `dynamodbav:"lang"`
	Flags     map[string]any `dynamodbav:"flags"`
	Resolved  bool           `dynamodbav:"resolved"`
	ExpireAt  int64          `dynamodbav:"expire_at,omitempty"`
}

func (it Item) MarshalDynamoDBAttributeValue() (ddbtypes.AttributeValue, error) {
	return attributevalue.Marshal(itemRecord{
		Date:      it.Date,
		SK:        it.SK,
		SessionID: it.SessionID,
		TS:        it.TS,
		Message:   it.Message,
		Lang:      it.Lang,
		Flags:     it.Flags.Map(),
		Resolved:  it.Resolved,
		ExpireAt:  it.ExpireAt,
	})
}

func (it *Item) UnmarshalDynamoDBAttributeValue(av ddbtypes.AttributeValue) error {
	var rec itemRecord
	if err := attributevalue.Unmarshal(av, &rec); err != nil {
		return err
	}
	*it = Item{
		Date:      rec.Date,
		SK:        rec.SK,
		SessionID: rec.SessionID,
		TS:        rec.TS,
		Message:   rec.Message,
		Lang:      rec.Lang,
		Flags:     intent.FlagsFromMap(rec.Flags),
		Resolved:  rec.Resolved,
		ExpireAt:  rec.ExpireAt,
	}
	return nil
}

func (s *DynamoStore) Add(ctx context.Context, item Item) error {
	if item.ExpireAt == 0 {
		item.ExpireAt = s.now().Add(Retention).Unix()
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal pending item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put pending item: %w", err)
	}
	return nil
}

func (s *DynamoStore) ResolveSession(ctx context.Context, day, sessionID string) error {
	items, err := s.query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("#d = :d AND begins_with(sk, :p)"),
		FilterExpression:       aws.String("#r = :f"),
		ExpressionAttributeNames: map[string]string{
			"#d": "date",
			"#r": "resolved",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":d": &ddbtypes.AttributeValueMemberS{Value: day},
			":p": &ddbtypes.AttributeValueMemberS{Value: sessionID + "#"},
			":f": &ddbtypes.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return fmt.Errorf("query session %s: %w", sessionID, err)
	}

	for _, it := range items {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: &s.tableName,
			Key: map[string]ddbtypes.AttributeValue{
				"date": &ddbtypes.AttributeValueMemberS{Value: it.Date},
				"sk":   &ddbtypes.AttributeValueMemberS{Value: it.SK},
			},
			UpdateExpression:         aws.String("SET #r = :t"),
			ExpressionAttributeNames: map[string]string{"#r": "resolved"},
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":t": &ddbtypes.AttributeValueMemberBOOL{Value: true},
			},
		})
		if err != nil {
			return fmt.Errorf("resolve %s: %w", it.SK, err)
		}
	}
	return nil
}

func (s *DynamoStore) ListUnresolved(ctx context.Context, day string, limit int) ([]Item, error) {
	items, err := s.query(ctx, &dynamodb.QueryInput{
		TableName:                &s.tableName,
		KeyConditionExpression:   aws.String("#d = :d"),
		FilterExpression:         aws.String("#r = :f"),
		ExpressionAttributeNames: map[string]string{"#d": "date", "#r": "resolved"},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":d": &ddbtypes.AttributeValueMemberS{Value: day},
			":f": &ddbtypes.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query day %s: %w", day, err)
	}
	return latestPerSession(items, limit), nil
}

// query follows LastEvaluatedKey until the result set is exhausted.
func (s *DynamoStore) query(ctx context.Context, input *dynamodb.QueryInput) ([]Item, error) {
	var out []Item
	for {
		resp, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []Item
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal pending items: %w", err)
		}
		out = append(out, page...)

		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}
