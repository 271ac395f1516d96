package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retail_service/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// cartTTL keeps abandoned carts from accumulating forever; any write refreshes it.
const cartTTL = 24 * time.Hour

type redisCartStore struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewRedisCartStore(client *redis.Client, logger *logrus.Logger) domain.CartStore {
	return &redisCartStore{
		client: client,
		log:    logger,
	}
}

func cartKey(customerID string) string {
	return fmt.Sprintf("cart:%s", customerID)
}

func (s *redisCartStore) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	payload, err := s.client.Get(ctx, cartKey(customerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.log.Errorf("Failed to get cart for customer %s: %v", customerID, err)
		return nil, fmt.Errorf("could not retrieve cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(payload), &cart); err != nil {
		s.log.Errorf("Failed to decode cart for customer %s: %v", customerID, err)
		return nil, fmt.Errorf("could not decode cart: %w", err)
	}

	return &cart, nil
}

func (s *redisCartStore) SaveCart(ctx context.Context, cart *domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		s.log.Errorf("Failed to encode cart for customer %s: %v", cart.CustomerID, err)
		return fmt.Errorf("could not encode cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(cart.CustomerID), payload, cartTTL).Err(); err != nil {
		s.log.Errorf("Failed to save cart for customer %s: %v", cart.CustomerID, err)
		return fmt.Errorf("could not save cart: %w", err)
	}

	return nil
}

func (s *redisCartStore) DeleteCart(ctx context.Context, customerID string) error {
	if err := s.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		s.log.Errorf("Failed to delete cart for customer %s: %v", customerID, err)
		return fmt.Errorf("could not delete cart: %w", err)
	}
	return nil
}
