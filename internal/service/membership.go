package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// ListKind selects which of a user's collections a membership operation
// targets. Favorites and the shopping cart hold recipes; subscriptions hold
// other users.
type ListKind string

const (
	ListFavorites     ListKind = "favorites"
	ListShoppingCart  ListKind = "shopping_cart"
	ListSubscriptions ListKind = "subscriptions"
)

// MembershipService is the one add/remove implementation behind favorites,
// the shopping cart and subscriptions.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

func membershipQuery(tx *gorm.DB, kind ListKind, userID, targetID uuid.UUID) (*gorm.DB, error) {
	switch kind {
	case ListFavorites:
		return tx.Model(&models.Favorite{}).Where("user_id = ? AND recipe_id = ?", userID, targetID), nil
	case ListShoppingCart:
		return tx.Model(&models.ShoppingCartItem{}).Where("user_id = ? AND recipe_id = ?", userID, targetID), nil
	case ListSubscriptions:
		return tx.Model(&models.Subscription{}).Where("user_id = ? AND following_id = ?", userID, targetID), nil
	default:
		return nil, fmt.Errorf("unknown list kind %q", kind)
	}
}

func membershipRow(kind ListKind, userID, targetID uuid.UUID) (interface{}, error) {
	switch kind {
	case ListFavorites:
		return &models.Favorite{UserID: userID, RecipeID: targetID}, nil
	case ListShoppingCart:
		return &models.ShoppingCartItem{UserID: userID, RecipeID: targetID}, nil
	case ListSubscriptions:
		return &models.Subscription{UserID: userID, FollowingID: targetID}, nil
	default:
		return nil, fmt.Errorf("unknown list kind %q", kind)
	}
}

// Add inserts target into the user's collection. Adding an existing member
// fails with ErrAlreadyInList whether the existence check or the storage
// unique constraint catches it first.
func (s *MembershipService) Add(ctx context.Context, kind ListKind, userID, targetID uuid.UUID) error {
	if kind == ListSubscriptions && userID == targetID {
		return ErrSelfAction
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query, err := membershipQuery(tx, kind, userID, targetID)
		if err != nil {
			return err
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyInList
		}
		row, err := membershipRow(kind, userID, targetID)
		if err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyInList
			}
			return err
		}
		return nil
	})
}

// Remove deletes the membership; removing an absent member fails with
// ErrNotInList.
func (s *MembershipService) Remove(ctx context.Context, kind ListKind, userID, targetID uuid.UUID) error {
	if kind == ListSubscriptions && userID == targetID {
		return ErrSelfAction
	}
	row, err := membershipRow(kind, userID, targetID)
	if err != nil {
		return err
	}
	query, err := membershipQuery(s.db.WithContext(ctx), kind, userID, targetID)
	if err != nil {
		return err
	}
	result := query.Delete(row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotInList
	}
	return nil
}

// Contains reports membership without modifying the collection.
func (s *MembershipService) Contains(ctx context.Context, kind ListKind, userID, targetID uuid.UUID) (bool, error) {
	query, err := membershipQuery(s.db.WithContext(ctx), kind, userID, targetID)
	if err != nil {
		return false, err
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Subscriptions lists the users the given user follows, oldest first.
func (s *MembershipService) Subscriptions(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.following_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("subscriptions.created_at").
		Find(&users).Error
	return users, err
}
