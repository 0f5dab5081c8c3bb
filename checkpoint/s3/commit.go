package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/schwarzgo/checkpoint"
)

// DDBClient is the subset of the DynamoDB API the commit store uses.
// *dynamodb.Client satisfies it.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentCommit is returned when another writer claimed the
// next version first. The caller re-reads Current and decides whether
// its snapshot set is still worth committing.
var ErrConcurrentCommit = errors.New("s3: concurrent commit detected")

// CommitStore couples an S3 snapshot store with a DynamoDB commit
// table so a set of per-rank snapshots becomes visible atomically.
//
// S3 has no compare-and-swap, so publishing N rank snapshots one
// object at a time would expose readers to half-written sets.
// Instead, ranks save under a fresh version prefix (say "v7/rank-3"),
// and once all saves return, one rank commits "v7" with a DynamoDB
// conditional write. Readers resolve Current to find the last fully
// committed prefix.
//
// Table schema:
//   - Partition key: scope (string), one per snapshot collection
//   - Sort key: version (number), monotonically increasing
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name schwarz-commits \
//	  --attribute-definitions AttributeName=scope,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=scope,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	*Store
	ddb   DDBClient
	table string
	scope string
}

// NewCommitStore wraps store with commit tracking in the given
// DynamoDB table. The scope keys this collection's commit history,
// typically "s3://bucket/prefix".
func NewCommitStore(store *Store, ddb DDBClient, table, scope string) *CommitStore {
	return &CommitStore{
		Store: store,
		ddb:   ddb,
		table: table,
		scope: scope,
	}
}

// Current returns the latest committed version and its prefix. The
// error wraps checkpoint.ErrNotFound when nothing has been committed
// yet.
func (s *CommitStore) Current(ctx context.Context) (uint64, string, error) {
	version, prefix, err := s.latest(ctx)
	if err != nil {
		return 0, "", err
	}
	if version == 0 {
		return 0, "", fmt.Errorf("s3: no committed snapshot set: %w", checkpoint.ErrNotFound)
	}
	return version, prefix, nil
}

// Commit publishes prefix as the next version. The conditional write
// guarantees exactly one writer wins a given version; the loser gets
// ErrConcurrentCommit.
func (s *CommitStore) Commit(ctx context.Context, prefix string) (uint64, error) {
	current, _, err := s.latest(ctx)
	if err != nil {
		return 0, err
	}
	next := current + 1

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"scope":   &types.AttributeValueMemberS{Value: s.scope},
			"version": &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"prefix":  &types.AttributeValueMemberS{Value: prefix},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return 0, ErrConcurrentCommit
		}
		return 0, fmt.Errorf("s3: commit version %d: %w", next, err)
	}

	return next, nil
}

func (s *CommitStore) latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#scope = :scope"),
		ExpressionAttributeNames: map[string]string{
			"#scope": "scope",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scope": &types.AttributeValueMemberS{Value: s.scope},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query commits: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]

	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("s3: malformed version attribute")
	}
	prefixAttr, ok := item["prefix"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("s3: malformed prefix attribute")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: parse version: %w", err)
	}

	return version, prefixAttr.Value, nil
}
