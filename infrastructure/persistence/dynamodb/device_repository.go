package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"homelink-backend/application/ports"
	"homelink-backend/domain/device"
	apperrors "homelink-backend/pkg/errors"
)

// DynamoDBAPI is the slice of the DynamoDB client the repository uses
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DeviceRepository stores devices in one table with hash key ownerId and
// range key deviceId
type DeviceRepository struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewDeviceRepository creates a new DynamoDB device repository
func NewDeviceRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *DeviceRepository {
	return &DeviceRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

var _ ports.DeviceRepository = (*DeviceRepository)(nil)

func key(ownerID, deviceID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		device.FieldOwnerID:  &types.AttributeValueMemberS{Value: ownerID},
		device.FieldDeviceID: &types.AttributeValueMemberS{Value: deviceID},
	}
}

// Get retrieves a device by owner and id
func (r *DeviceRepository) Get(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            key(ownerID, deviceID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, r.storeError("GetItem", deviceID, err)
	}
	if len(result.Item) == 0 {
		return nil, apperrors.NewNotFoundError()
	}
	return r.parseItem("GetItem", result.Item)
}

// PutIfAbsent inserts a new device unless the id is already taken
func (r *DeviceRepository) PutIfAbsent(ctx context.Context, dev device.Device) error {
	item, err := attributevalue.MarshalMap(map[string]interface{}(dev))
	if err != nil {
		return apperrors.NewStoreError("MarshalMap", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(device.FieldDeviceID).AttributeNotExists()).
		Build()
	if err != nil {
		return apperrors.NewStoreError("BuildExpression", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewAlreadyExistsError().WithCause(err)
		}
		return r.storeError("PutItem", dev.DeviceID(), err)
	}

	r.logger.Debug("Device stored",
		zap.String("deviceID", dev.DeviceID()),
		zap.String("category", dev.Category()),
	)
	return nil
}

// Update applies the mutation's assignments in order. The item must still exist.
func (r *DeviceRepository) Update(ctx context.Context, ownerID, deviceID string, mutation device.Mutation) error {
	if mutation.IsEmpty() {
		return nil
	}

	var update expression.UpdateBuilder
	for _, a := range mutation.Assignments {
		update = update.Set(expression.Name(a.Field), expression.Value(a.Value))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.Name(device.FieldDeviceID).AttributeExists()).
		Build()
	if err != nil {
		return apperrors.NewStoreError("BuildExpression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key(ownerID, deviceID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNotFoundError().WithCause(err)
		}
		return r.storeError("UpdateItem", deviceID, err)
	}
	return nil
}

// Delete removes a device and returns the removed record
func (r *DeviceRepository) Delete(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	result, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          key(ownerID, deviceID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, r.storeError("DeleteItem", deviceID, err)
	}
	if len(result.Attributes) == 0 {
		return nil, apperrors.NewNotFoundError()
	}
	return r.parseItem("DeleteItem", result.Attributes)
}

// ListByOwner reads every page of the owner's partition
func (r *DeviceRepository) ListByOwner(ctx context.Context, ownerID string) ([]device.Device, error) {
	keyCond := expression.Key(device.FieldOwnerID).Equal(expression.Value(ownerID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewStoreError("BuildExpression", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	devices := make([]device.Device, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, r.storeError("Query", "", err)
		}
		for _, item := range page.Items {
			dev, err := r.parseItem("Query", item)
			if err != nil {
				return nil, err
			}
			devices = append(devices, dev)
		}
	}
	return devices, nil
}

func (r *DeviceRepository) parseItem(operation string, item map[string]types.AttributeValue) (device.Device, error) {
	var dev device.Device
	if err := attributevalue.UnmarshalMap(item, &dev); err != nil {
		return nil, apperrors.NewStoreError(operation, err)
	}
	return dev, nil
}

func (r *DeviceRepository) storeError(operation, deviceID string, err error) *apperrors.AppError {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("table", r.tableName),
		zap.Error(err),
	}
	if deviceID != "" {
		fields = append(fields, zap.String("deviceID", deviceID))
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			zap.String("awsErrorCode", apiErr.ErrorCode()),
			zap.String("awsErrorFault", apiErr.ErrorFault().String()),
		)
	}
	r.logger.Error("DynamoDB operation failed", fields...)

	return apperrors.NewStoreError(operation, err)
}
