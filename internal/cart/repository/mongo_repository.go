package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joinsangha/storefront/internal/cart/domain"
	"github.com/joinsangha/storefront/pkg/price"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cartDocument is the stored shape; decimals are kept as strings so no precision is lost.
type cartDocument struct {
	ClientID  string         `bson:"client_id"`
	Items     []itemDocument `bson:"items"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type itemDocument struct {
	Name          string `bson:"name"`
	Price         string `bson:"price"`
	PriceIsNumber bool   `bson:"price_is_number,omitempty"`
	Image         string `bson:"image,omitempty"`
	Quantity      string `bson:"quantity"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, clientID string) (*domain.Cart, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return fromDocument(doc)
}

func (m *mongoRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	doc := toDocument(cart)
	filter := bson.M{"client_id": cart.ClientID}
	update := bson.M{
		"$set": bson.M{
			"items":      doc.Items,
			"updated_at": doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"created_at": doc.CreatedAt,
		},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, clientID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 60 * 60), // abandoned carts
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func toDocument(cart *domain.Cart) cartDocument {
	items := make([]itemDocument, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, itemDocument{
			Name:          it.Name,
			Price:         it.Price.String(),
			PriceIsNumber: it.Price.IsNumber(),
			Image:         it.Image,
			Quantity:      it.Quantity.String(),
		})
	}
	return cartDocument{
		ClientID:  cart.ClientID,
		Items:     items,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func fromDocument(doc cartDocument) (*domain.Cart, error) {
	cart := &domain.Cart{
		ClientID:  doc.ClientID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	for _, it := range doc.Items {
		q, err := decimal.NewFromString(it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decode quantity of %q: %w", it.Name, err)
		}

		p := price.FromString(it.Price)
		if it.PriceIsNumber {
			n, err := decimal.NewFromString(it.Price)
			if err != nil {
				return nil, fmt.Errorf("decode price of %q: %w", it.Name, err)
			}
			p = price.FromNumber(n)
		}

		cart.Items = append(cart.Items, domain.LineItem{
			Name:     it.Name,
			Price:    p,
			Image:    it.Image,
			Quantity: q,
		})
	}
	return cart, nil
}
