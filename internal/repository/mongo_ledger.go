package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/AyuTechLive/e-commerce-web-keywellness/internal/domain"
)

type mongoLedger struct {
	db *mongo.Database
}

func NewMongoLedger(db *mongo.Database) OrderLedger {
	return &mongoLedger{db: db}
}

func (m *mongoLedger) CreatePendingOrder(ctx context.Context, order *domain.PendingOrder) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	_, err := m.db.Collection(CollPendingOrders).InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create pending order: %w", err)
	}
	return nil
}

// ClaimPendingOrder deletes and returns the pending order in one step. When
// two verification paths race, FindOneAndDelete guarantees only one of them
// gets the document back.
func (m *mongoLedger) ClaimPendingOrder(ctx context.Context, orderID string) (*domain.PendingOrder, error) {
	var order domain.PendingOrder
	err := m.db.Collection(CollPendingOrders).
		FindOneAndDelete(ctx, bson.M{"_id": orderID}).
		Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPendingOrderNotFound
		}
		return nil, fmt.Errorf("failed to claim pending order: %w", err)
	}
	return &order, nil
}

func (m *mongoLedger) CreateOrder(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	_, err := m.db.Collection(CollOrders).InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (m *mongoLedger) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := m.db.Collection(CollOrders).FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (m *mongoLedger) SetOrderShipment(ctx context.Context, orderID string, shipment *domain.ShipmentInfo) error {
	update := bson.M{
		"$set": bson.M{
			"status":                 domain.OrderStatusProcessing,
			"delhivery":              shipment,
			"shipping_status":        shipment.Status,
			"shipping_partner":       "delhivery",
			"delhivery_retry_needed": false,
			"updated_at":             time.Now(),
		},
		"$unset": bson.M{"delhivery_error": ""},
	}

	res, err := m.db.Collection(CollOrders).UpdateOne(ctx, bson.M{"_id": orderID}, update)
	if err != nil {
		return fmt.Errorf("failed to set order shipment: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (m *mongoLedger) MarkOrderShipmentFailed(ctx context.Context, orderID string, reason string) error {
	update := bson.M{
		"$set": bson.M{
			"delhivery_error":        reason,
			"delhivery_retry_needed": true,
			"shipping_status":        "creation_failed",
			"updated_at":             time.Now(),
		},
	}
	res, err := m.db.Collection(CollOrders).UpdateOne(ctx, bson.M{"_id": orderID}, update)
	if err != nil {
		return fmt.Errorf("failed to mark shipment failure: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (m *mongoLedger) CreatePaymentRequest(ctx context.Context, pr *domain.PaymentRequest) error {
	now := time.Now()
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = now
	}
	pr.UpdatedAt = now

	_, err := m.db.Collection(CollPaymentRequests).InsertOne(ctx, pr)
	if err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	return nil
}

func (m *mongoLedger) GetPaymentRequest(ctx context.Context, orderID string) (*domain.PaymentRequest, error) {
	var pr domain.PaymentRequest
	err := m.db.Collection(CollPaymentRequests).FindOne(ctx, bson.M{"_id": orderID}).Decode(&pr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPaymentRequestNotFound
		}
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}
	return &pr, nil
}

func (m *mongoLedger) SetPaymentInitiateResponse(ctx context.Context, orderID string, resp map[string]any) error {
	return m.updatePaymentRequest(ctx, orderID, bson.M{
		"phonepe_response": resp,
		"updated_at":       time.Now(),
	})
}

func (m *mongoLedger) MarkPaymentCompleted(ctx context.Context, orderID string, resp map[string]any) error {
	now := time.Now()
	return m.updatePaymentRequest(ctx, orderID, bson.M{
		"status":                domain.PaymentStatusCompleted,
		"verification_response": resp,
		"verified_at":           now,
		"completed_at":          now,
		"updated_at":            now,
	})
}

// MarkPaymentPending is a no-op for requests already in a terminal state: a
// stale PENDING poll must never downgrade a settled payment.
func (m *mongoLedger) MarkPaymentPending(ctx context.Context, orderID string, resp map[string]any) error {
	now := time.Now()
	filter := bson.M{
		"_id": orderID,
		"status": bson.M{"$nin": []domain.PaymentRequestStatus{
			domain.PaymentStatusCompleted,
			domain.PaymentStatusFailed,
		}},
	}
	set := bson.M{
		"status":                domain.PaymentStatusPending,
		"verification_response": resp,
		"verified_at":           now,
		"updated_at":            now,
	}
	_, err := m.db.Collection(CollPaymentRequests).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	return nil
}

func (m *mongoLedger) MarkPaymentFailed(ctx context.Context, orderID string, reason string, resp map[string]any) error {
	now := time.Now()
	return m.updatePaymentRequest(ctx, orderID, bson.M{
		"status":                domain.PaymentStatusFailed,
		"verification_response": resp,
		"failure_reason":        reason,
		"verified_at":           now,
		"failed_at":             now,
		"updated_at":            now,
	})
}

func (m *mongoLedger) updatePaymentRequest(ctx context.Context, orderID string, set bson.M) error {
	res, err := m.db.Collection(CollPaymentRequests).
		UpdateOne(ctx, bson.M{"_id": orderID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrPaymentRequestNotFound
	}
	return nil
}

// The three Log helpers are best effort: diagnostics must never fail the
// request that produced them.

func (m *mongoLedger) LogPaymentError(ctx context.Context, entry map[string]any) {
	m.logEntry(ctx, CollPaymentErrors, entry)
}

func (m *mongoLedger) LogVerificationError(ctx context.Context, entry map[string]any) {
	m.logEntry(ctx, CollVerificationErrors, entry)
}

func (m *mongoLedger) LogTransaction(ctx context.Context, entry map[string]any) {
	m.logEntry(ctx, CollTransactionLogs, entry)
}

func (m *mongoLedger) logEntry(ctx context.Context, collection string, entry map[string]any) {
	if entry == nil {
		entry = map[string]any{}
	}
	if _, ok := entry["created_at"]; !ok {
		entry["created_at"] = time.Now()
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, entry); err != nil {
		log.Printf("Failed to write %s entry: %v", collection, err)
	}
}

// DeleteOlderThan removes up to batch documents created before cutoff. It
// selects ids first so the delete stays bounded on large collections.
func (m *mongoLedger) DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time, batch int) (int64, error) {
	coll := m.db.Collection(collection)

	findOpts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetLimit(int64(batch))
	cursor, err := coll.Find(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}}, findOpts)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale documents: %w", err)
	}

	var docs []struct {
		ID any `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return 0, fmt.Errorf("failed to read stale document ids: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	ids := make([]any, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}

	res, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale documents: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *mongoLedger) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

// CreateIndexes builds the secondary indexes the query paths rely on.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	orders := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "delhivery_retry_needed", Value: 1}}},
	}
	if _, err := db.Collection(CollOrders).Indexes().CreateMany(ctx, orders); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	for _, coll := range []string{CollPendingOrders, CollPaymentErrors, CollVerificationErrors, CollTransactionLogs} {
		model := mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: 1}}}
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create %s index: %w", coll, err)
		}
	}
	return nil
}
