package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DynamoStore implements DocumentStore on one DynamoDB table with the
// composite key (collection, id). Documents live in the "data" attribute as
// JSON text.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoDocument represents the DynamoDB item structure
type dynamoDocument struct {
	Collection string `dynamodbav:"collection"`
	ID         string `dynamodbav:"id"`
	Data       string `dynamodbav:"data"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// NewDynamoClient loads the default AWS configuration. A non-empty endpoint
// points the client at a local emulator.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (s *DynamoStore) Get(ctx context.Context, collection, id string, dst any) error {
	raw, err := s.getRaw(ctx, collection, id)
	if err != nil {
		return err
	}
	return decodeRaw(raw, dst)
}

func (s *DynamoStore) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.put(ctx, collection, id, raw, false)
}

func (s *DynamoStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.overlay(ctx, collection, id, fields, false)
}

func (s *DynamoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.overlay(ctx, collection, id, fields, true)
}

func (s *DynamoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(collection, id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", mapDynamoError(err))
	}
	return nil
}

// overlay is a read-modify-write. DynamoDB cannot merge nested JSON held in
// a string attribute, and the storefront writes each document from a single
// owner, so the lost-update window is accepted.
func (s *DynamoStore) overlay(ctx context.Context, collection, id string, fields map[string]any, mustExist bool) error {
	fields, err := normalizeFields(fields)
	if err != nil {
		return err
	}

	var current map[string]any
	raw, err := s.getRaw(ctx, collection, id)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("unmarshal document: %w", err)
		}
	case errors.Is(err, ErrNotFound) && !mustExist:
	default:
		return err
	}

	merged, err := json.Marshal(overlay(current, fields))
	if err != nil {
		return err
	}
	return s.put(ctx, collection, id, merged, mustExist)
}

func (s *DynamoStore) getRaw(ctx context.Context, collection, id string) ([]byte, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(collection, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", mapDynamoError(err))
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var item dynamoDocument
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return []byte(item.Data), nil
}

func (s *DynamoStore) put(ctx context.Context, collection, id string, raw []byte, mustExist bool) error {
	item := dynamoDocument{
		Collection: collection,
		ID:         id,
		Data:       string(raw),
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}
	if mustExist {
		input.ConditionExpression = aws.String("attribute_exists(collection) AND attribute_exists(id)")
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to put document: %w", mapDynamoError(err))
	}
	return nil
}

func (s *DynamoStore) key(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"collection": &types.AttributeValueMemberS{Value: collection},
		"id":         &types.AttributeValueMemberS{Value: id},
	}
}

func mapDynamoError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDeniedException" {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, apiErr.ErrorMessage())
	}
	return err
}
