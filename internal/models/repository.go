package models

import "context"

// Validator is implemented by entities that check their own invariants before persistence.
type Validator interface {
	Validate() error
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T any] interface {
	Create(ctx context.Context, model T) error                      // Create inserts a new model into the database
	Get(ctx context.Context, id string) (T, error)                  // Get retrieves a model by its ID
	Update(ctx context.Context, model T) error                      // Update modifies an existing model in the database
	Delete(ctx context.Context, id string) error                    // Delete removes a model from the database by its ID
	List(ctx context.Context, criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}
