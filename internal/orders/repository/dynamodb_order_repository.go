package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	apperrors "github.com/allisson/charms/internal/errors"
	"github.com/allisson/charms/internal/orders/domain"
)

const (
	// LocalTokenIndex is the global secondary index keyed by local_token.
	LocalTokenIndex = "local_token-index"

	maxConditionalAttempts = 5
)

// DynamoDBAPI is the subset of *dynamodb.Client used by the repository.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoDBOrderRepository implements Order Record persistence on a DynamoDB
// table keyed by order_key. Upserts use a conditional put on the version
// attribute and retry when another writer wins the race.
type DynamoDBOrderRepository struct {
	client DynamoDBAPI
	table  string
}

// NewDynamoDBOrderRepository creates a new DynamoDB order repository.
func NewDynamoDBOrderRepository(client DynamoDBAPI, table string) *DynamoDBOrderRepository {
	return &DynamoDBOrderRepository{client: client, table: table}
}

type ddbOrder struct {
	OrderKey            string `dynamodbav:"order_key"`
	LocalToken          string `dynamodbav:"local_token,omitempty"`
	Name                string `dynamodbav:"name"`
	Birthdate           string `dynamodbav:"birthdate"`
	Goal                string `dynamodbav:"goal"`
	Email               string `dynamodbav:"email"`
	InputsAuthoritative bool   `dynamodbav:"inputs_authoritative"`
	Status              string `dynamodbav:"status"`
	PaymentStatus       string `dynamodbav:"payment_status"`
	ArtifactRef         string `dynamodbav:"artifact_ref"`
	AmountCents         int64  `dynamodbav:"amount_cents"`
	Currency            string `dynamodbav:"currency"`
	Version             int64  `dynamodbav:"version"`
	CreatedAt           string `dynamodbav:"created_at"`
	UpdatedAt           string `dynamodbav:"updated_at"`
}

func toItem(order *domain.Order) ddbOrder {
	return ddbOrder{
		OrderKey:            order.Key,
		LocalToken:          order.LocalToken,
		Name:                order.Inputs.Name,
		Birthdate:           order.Inputs.Birthdate,
		Goal:                order.Inputs.Goal,
		Email:               order.Inputs.Email,
		InputsAuthoritative: order.InputsAuthoritative,
		Status:              string(order.Status),
		PaymentStatus:       order.PaymentStatus,
		ArtifactRef:         order.ArtifactRef,
		AmountCents:         order.AmountCents,
		Currency:            order.Currency,
		Version:             order.Version,
		CreatedAt:           order.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:           order.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (d ddbOrder) toDomain() *domain.Order {
	order := &domain.Order{
		Key:        d.OrderKey,
		LocalToken: d.LocalToken,
		Inputs: domain.CustomerInputs{
			Name:      d.Name,
			Birthdate: d.Birthdate,
			Goal:      d.Goal,
			Email:     d.Email,
		},
		InputsAuthoritative: d.InputsAuthoritative,
		Status:              domain.Status(d.Status),
		PaymentStatus:       d.PaymentStatus,
		ArtifactRef:         d.ArtifactRef,
		AmountCents:         d.AmountCents,
		Currency:            d.Currency,
		Version:             d.Version,
	}
	if t, err := time.Parse(time.RFC3339Nano, d.CreatedAt); err == nil {
		order.CreatedAt = t.UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, d.UpdatedAt); err == nil {
		order.UpdatedAt = t.UTC()
	}
	return order
}

func unmarshalOrder(item map[string]types.AttributeValue) (*domain.Order, error) {
	var d ddbOrder
	if err := attributevalue.UnmarshalMap(item, &d); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal order")
	}
	return d.toDomain(), nil
}

// Get retrieves an order by its session handle with a strongly consistent read.
func (r *DynamoDBOrderRepository) Get(ctx context.Context, key string) (*domain.Order, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            map[string]types.AttributeValue{"order_key": &types.AttributeValueMemberS{Value: key}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get order")
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return unmarshalOrder(out.Item)
}

// GetByLocalToken retrieves the most recently created order carrying a client
// correlation token through the local_token index. The index is not unique: a
// retried checkout reuses the token on a new session.
func (r *DynamoDBOrderRepository) GetByLocalToken(ctx context.Context, token string) (*domain.Order, error) {
	var orders []*domain.Order
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.table),
			IndexName:              aws.String(LocalTokenIndex),
			KeyConditionExpression: aws.String("local_token = :token"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":token": &types.AttributeValueMemberS{Value: token},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to query order by local token")
		}
		for _, item := range out.Items {
			order, err := unmarshalOrder(item)
			if err != nil {
				return nil, err
			}
			orders = append(orders, order)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	latest := latestOrder(orders)
	if latest == nil {
		return nil, domain.ErrOrderNotFound
	}
	return latest, nil
}

// Upsert reads the current item, merges update and writes it back on the
// condition that no other writer bumped the version in between.
func (r *DynamoDBOrderRepository) Upsert(
	ctx context.Context,
	key string,
	update domain.OrderUpdate,
) (*domain.Order, error) {
	for attempt := 0; attempt < maxConditionalAttempts; attempt++ {
		now := nowUTC()

		current, err := r.Get(ctx, key)
		exists := err == nil
		if err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		if !exists {
			current = domain.NewOrder(key, now)
		}

		previousVersion := current.Version
		if !current.Apply(update, now) && exists {
			return current, nil
		}

		item, err := attributevalue.MarshalMap(toItem(current))
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal order")
		}

		input := &dynamodb.PutItemInput{
			TableName: aws.String(r.table),
			Item:      item,
		}
		if exists {
			input.ConditionExpression = aws.String("#version = :version")
			input.ExpressionAttributeNames = map[string]string{"#version": "version"}
			input.ExpressionAttributeValues = map[string]types.AttributeValue{
				":version": &types.AttributeValueMemberN{Value: strconv.FormatInt(previousVersion, 10)},
			}
		} else {
			input.ConditionExpression = aws.String("attribute_not_exists(order_key)")
		}

		_, err = r.client.PutItem(ctx, input)
		if err == nil {
			return current, nil
		}

		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return nil, apperrors.Wrap(err, "failed to put order")
		}
	}

	return nil, apperrors.Wrapf(apperrors.ErrConflict, "order %s kept changing during upsert", key)
}

// ListByStatus scans for up to limit orders with status, oldest first.
// It is meant for the batch fulfillment sweep, not the request path.
func (r *DynamoDBOrderRepository) ListByStatus(
	ctx context.Context,
	status domain.Status,
	limit int,
) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0)
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(r.table),
			FilterExpression:         aws.String("#status = :status"),
			ExpressionAttributeNames: map[string]string{"#status": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: string(status)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan orders")
		}

		for _, item := range out.Items {
			order, err := unmarshalOrder(item)
			if err != nil {
				return nil, err
			}
			orders = append(orders, order)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// EnsureTable creates the orders table and its local_token index when missing.
func (r *DynamoDBOrderRepository) EnsureTable(ctx context.Context) error {
	_, err := r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(r.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("order_key"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("local_token"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("order_key"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(LocalTokenIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("local_token"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return apperrors.Wrap(err, "failed to create orders table")
	}
	return nil
}

// PingContext reads at most one item to check that the table is reachable.
func (r *DynamoDBOrderRepository) PingContext(ctx context.Context) error {
	_, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
		Limit:     aws.Int32(1),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to reach orders table")
	}
	return nil
}
