package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/chordpad/model"
)

// DynamoStore keeps drafts in a DynamoDB table keyed by PK. The document is
// stored as a JSON string so its shape can change without a table migration.
type DynamoStore struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func NewDynamoStore(client dynamodbiface.DynamoDBAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// DialDynamo opens a client. An empty endpoint uses the regular AWS endpoint
// for the region.
func DialDynamo(endpoint, region string) (*dynamodb.DynamoDB, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create a new DynamoDB session: %w", err)
	}
	return dynamodb.New(sess), nil
}

func toItem(d model.Draft) (map[string]*dynamodb.AttributeValue, error) {
	doc, err := json.Marshal(d.Document)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return map[string]*dynamodb.AttributeValue{
		"PK":        {S: aws.String(d.ID)},
		"Title":     {S: aws.String(d.Title)},
		"Lyrics":    {S: aws.String(d.Lyrics)},
		"Document":  {S: aws.String(string(doc))},
		"CreatedAt": {S: aws.String(d.CreatedAt.UTC().Format(time.RFC3339Nano))},
		"UpdatedAt": {S: aws.String(d.UpdatedAt.UTC().Format(time.RFC3339Nano))},
	}, nil
}

func fromItem(item map[string]*dynamodb.AttributeValue) (model.Draft, error) {
	str := func(key string) string {
		if v, ok := item[key]; ok && v.S != nil {
			return *v.S
		}
		return ""
	}
	stamp := func(key string) (time.Time, error) {
		s := str(key)
		if s == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339Nano, s)
	}

	d := model.Draft{ID: str("PK"), Title: str("Title"), Lyrics: str("Lyrics")}
	if doc := str("Document"); doc != "" {
		if err := json.Unmarshal([]byte(doc), &d.Document); err != nil {
			return d, fmt.Errorf("unmarshal document of %s: %w", d.ID, err)
		}
	}
	var err error
	if d.CreatedAt, err = stamp("CreatedAt"); err != nil {
		return d, fmt.Errorf("parse CreatedAt of %s: %w", d.ID, err)
	}
	if d.UpdatedAt, err = stamp("UpdatedAt"); err != nil {
		return d, fmt.Errorf("parse UpdatedAt of %s: %w", d.ID, err)
	}
	return d, nil
}

func (s *DynamoStore) key(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{"PK": {S: aws.String(id)}}
}

func (s *DynamoStore) Save(ctx context.Context, d model.Draft) error {
	item, err := toItem(d)
	if err != nil {
		return err
	}
	_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put draft %s: %w", d.ID, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, id string) (model.Draft, error) {
	out, err := s.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.Draft{}, fmt.Errorf("get draft %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return model.Draft{}, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return fromItem(out.Item)
}

func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	out, err := s.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		Key:          s.key(id),
		ReturnValues: aws.String(dynamodb.ReturnValueAllOld),
	})
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	if len(out.Attributes) == 0 {
		return fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *DynamoStore) List(ctx context.Context) ([]model.DraftSummary, error) {
	res := make([]model.DraftSummary, 0)
	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	for {
		out, err := s.client.ScanWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan drafts: %w", err)
		}
		for _, item := range out.Items {
			d, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			res = append(res, d.Summary())
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	sortSummaries(res)
	return res, nil
}
