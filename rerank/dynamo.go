package rerank

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dermalens/skinmatch/demographics"
)

// DynamoClient is the subset of the DynamoDB API used by DynamoLookup.
// It allows tests to substitute a fake without a live table.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoLookup resolves demographic profiles from a DynamoDB table.
//
// Table schema: partition key "case_id" (string); attributes "ethnicity",
// "skin_type" and "age_group" as optional strings.
type DynamoLookup struct {
	client    DynamoClient
	tableName string
}

// NewDynamoLookup creates a Lookup backed by the given DynamoDB table.
func NewDynamoLookup(client DynamoClient, tableName string) *DynamoLookup {
	return &DynamoLookup{
		client:    client,
		tableName: tableName,
	}
}

// Get implements Lookup. A missing item is "absent", not an error.
func (l *DynamoLookup) Get(ctx context.Context, id string) (demographics.Profile, bool, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"case_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return demographics.Profile{}, false, fmt.Errorf("dynamodb lookup %q: %w", id, err)
	}

	if len(out.Item) == 0 {
		return demographics.Profile{}, false, nil
	}

	p := demographics.Profile{
		Ethnicity: stringAttr(out.Item, demographics.KeyEthnicity),
		SkinType:  stringAttr(out.Item, demographics.KeySkinType),
		AgeGroup:  stringAttr(out.Item, demographics.KeyAgeGroup),
	}

	return p, !p.IsEmpty(), nil
}

func stringAttr(item map[string]types.AttributeValue, key string) string {
	if av, ok := item[key]; ok {
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			return s.Value
		}
	}
	return ""
}
