package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"optical-commerce/internal/domain"
)

type cartRepo interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, userID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type Service struct {
	repo     cartRepo
	products productRepo
	logger   *zap.Logger
}

func New(repo cartRepo, products productRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, products: products, logger: logger}
}

type AddItemInput struct {
	ProductID      string                 `json:"productId"`
	Quantity       int                    `json:"quantity"`
	PrescriptionID *string                `json:"prescriptionId,omitempty"`
	Customizations *domain.Customizations `json:"customizations,omitempty"`
}

type UpdateItemInput struct {
	Quantity       *int                   `json:"quantity,omitempty"`
	Customizations *domain.Customizations `json:"customizations,omitempty"`
}

// Get is a pure read: it never mutates or persists the cart. Callers that
// want dead lines dropped use Prune.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.Get(ctx, userID)
}

func (s *Service) Summary(ctx context.Context, userID string) (domain.CartSummary, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.CartSummary{}, err
	}
	return cart.Summary(), nil
}

// AddItem appends a line or merges quantity into an existing line with the
// same (product, prescription) pair. The stored price snapshots the product's
// current effective price.
func (s *Service) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.Cart, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.ErrProductInactive
	}
	if product.Stock < in.Quantity {
		return nil, domain.ErrInsufficientStock
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if idx := cart.FindItem(in.ProductID, in.PrescriptionID); idx >= 0 {
		newQuantity := cart.Items[idx].Quantity + in.Quantity
		if product.Stock < newQuantity {
			return nil, domain.ErrInsufficientStock
		}
		cart.Items[idx].Quantity = newQuantity
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:              uuid.NewString(),
			ProductID:       in.ProductID,
			Quantity:        in.Quantity,
			PrescriptionID:  in.PrescriptionID,
			Customizations:  in.Customizations,
			PriceAtAddCents: product.EffectivePriceCents(),
			AddedAt:         time.Now().UTC(),
		})
	}

	cart.RecomputeTotals()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.logger.Info("cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", in.ProductID),
		zap.Int("quantity", in.Quantity))
	return cart, nil
}

func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, in UpdateItemInput) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, item := range cart.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.ErrItemNotFound
	}
	item := &cart.Items[idx]

	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < *in.Quantity {
			return nil, domain.ErrInsufficientStock
		}
		item.Quantity = *in.Quantity
	}
	if in.Customizations != nil {
		item.Customizations = mergeCustomizations(item.Customizations, in.Customizations)
	}

	cart.RecomputeTotals()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, item := range cart.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.ErrItemNotFound
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	cart.RecomputeTotals()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

// Prune drops lines whose product no longer exists or is inactive and
// persists the result. It replaces the old implicit filter-on-read behavior
// with an operation callers invoke deliberately.
func (s *Service) Prune(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	dropped := 0
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				dropped++
				continue
			}
			return nil, err
		}
		if !product.IsActive {
			dropped++
			continue
		}
		kept = append(kept, item)
	}
	if dropped == 0 {
		return cart, nil
	}

	cart.Items = kept
	cart.RecomputeTotals()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	s.logger.Info("cart pruned", zap.String("user_id", userID), zap.Int("dropped", dropped))
	return cart, nil
}

func mergeCustomizations(existing, update *domain.Customizations) *domain.Customizations {
	if existing == nil {
		return update
	}
	merged := *existing
	if update.LensType != "" {
		merged.LensType = update.LensType
	}
	if len(update.Coating) > 0 {
		merged.Coating = update.Coating
	}
	if update.Tint != "" {
		merged.Tint = update.Tint
	}
	return &merged
}
