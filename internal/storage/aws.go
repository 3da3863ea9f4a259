package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ignite/influencer-analytics/internal/goals"
)

// LoadAWSConfig loads the default credential chain, optionally pinned to a
// shared-config profile.
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

func newS3Client(cfg aws.Config) *s3.Client { return s3.NewFromConfig(cfg) }

// S3Store keeps documents as objects under an optional key prefix.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed document store.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting object %s to S3: %w", key, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("getting object %s from S3: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys  []string
		token *string
	)
	full := s.objectKey(prefix)
	if prefix == "" && s.prefix != "" {
		full = s.prefix + "/"
	}
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(full),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("listing S3 prefix %s: %w", full, err)
		}
		for _, obj := range out.Contents {
			k := aws.ToString(obj.Key)
			if s.prefix != "" {
				k = strings.TrimPrefix(k, s.prefix+"/")
			}
			keys = append(keys, k)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

// DynamoAPI is the subset of the DynamoDB client used by DynamoGoalStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// NewDynamoClient creates a DynamoDB client from an AWS config.
func NewDynamoClient(cfg aws.Config) *dynamodb.Client { return dynamodb.NewFromConfig(cfg) }

// goalPartition groups every goal under one partition so List is a single
// Query. Goal registries are small.
const goalPartition = "GOALS"

// DynamoDBItem is the single-table item shape shared by every record type.
type DynamoDBItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
}

// DynamoGoalStore implements goals.Store on a PK/SK DynamoDB table.
type DynamoGoalStore struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

// NewDynamoGoalStore creates a goal store on table.
func NewDynamoGoalStore(client DynamoAPI, table string) *DynamoGoalStore {
	return &DynamoGoalStore{client: client, table: table, now: time.Now}
}

func goalKey(id string) map[string]dbtypes.AttributeValue {
	return map[string]dbtypes.AttributeValue{
		"PK": &dbtypes.AttributeValueMemberS{Value: goalPartition},
		"SK": &dbtypes.AttributeValueMemberS{Value: "GOAL#" + id},
	}
}

func (s *DynamoGoalStore) Save(ctx context.Context, g goals.Goal) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling goal: %w", err)
	}
	av, err := attributevalue.MarshalMap(DynamoDBItem{
		PK:        goalPartition,
		SK:        "GOAL#" + g.ID,
		Data:      string(data),
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting goal %s to DynamoDB: %w", g.ID, err)
	}
	return nil
}

func (s *DynamoGoalStore) Get(ctx context.Context, id string) (goals.Goal, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       goalKey(id),
	})
	if err != nil {
		return goals.Goal{}, fmt.Errorf("getting goal %s from DynamoDB: %w", id, err)
	}
	if len(out.Item) == 0 {
		return goals.Goal{}, goals.ErrNotFound
	}
	return decodeGoal(out.Item)
}

func (s *DynamoGoalStore) List(ctx context.Context) ([]goals.Goal, error) {
	var (
		out  []goals.Goal
		last map[string]dbtypes.AttributeValue
	)
	for {
		res, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]dbtypes.AttributeValue{
				":pk": &dbtypes.AttributeValueMemberS{Value: goalPartition},
				":sk": &dbtypes.AttributeValueMemberS{Value: "GOAL#"},
			},
			ExclusiveStartKey: last,
		})
		if err != nil {
			return nil, fmt.Errorf("querying goals: %w", err)
		}
		for _, item := range res.Items {
			g, err := decodeGoal(item)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		last = res.LastEvaluatedKey
	}
	goals.SortByCreated(out)
	return out, nil
}

func (s *DynamoGoalStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 goalKey(id),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var ccf *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return goals.ErrNotFound
		}
		return fmt.Errorf("deleting goal %s: %w", id, err)
	}
	return nil
}

func decodeGoal(item map[string]dbtypes.AttributeValue) (goals.Goal, error) {
	var dbItem DynamoDBItem
	if err := attributevalue.UnmarshalMap(item, &dbItem); err != nil {
		return goals.Goal{}, fmt.Errorf("unmarshaling item: %w", err)
	}
	var g goals.Goal
	if err := json.Unmarshal([]byte(dbItem.Data), &g); err != nil {
		return goals.Goal{}, fmt.Errorf("decoding goal %s: %w", dbItem.SK, err)
	}
	return g, nil
}
