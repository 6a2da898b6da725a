// Package auth holds the authenticated principal, the closed set of
// capability predicates the handlers check, and the Redis-backed session
// store that gets invalidated when a user's role changes.
package auth

import "github.com/example/marketplace/pkg/models"

// Principal is the authenticated identity attached to every engine call.
// It comes from the session store; the engine never derives it itself.
type Principal struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// CanSetOrderStatus: only admins may move an order to an arbitrary
// status. Customers confirm receipt through CanConfirmReceipt instead.
func CanSetOrderStatus(p Principal, _ *models.Order) bool {
	return p.IsAdmin
}

// CanConfirmReceipt: the owning customer (or an admin) may confirm
// receipt. Whether the order is in a confirmable state is the status
// machine's business, not an authorization question.
func CanConfirmReceipt(p Principal, order *models.Order) bool {
	return p.IsAdmin || p.UserID == order.UserID
}

// CanMarkSent: the seller whose id was snapshotted onto the item, or an
// admin.
func CanMarkSent(p Principal, item *models.OrderItem) bool {
	if p.IsAdmin {
		return true
	}
	return p.Role == models.RoleSeller && p.UserID == item.SellerID
}

func CanReviewVerification(p Principal) bool {
	return p.IsAdmin
}

// CanViewOrder: owner sees their order, admins see everything, a seller
// sees orders containing at least one of their items.
func CanViewOrder(p Principal, order *models.Order) bool {
	if p.IsAdmin || p.UserID == order.UserID {
		return true
	}
	if p.Role != models.RoleSeller {
		return false
	}
	for i := range order.Items {
		if order.Items[i].SellerID == p.UserID {
			return true
		}
	}
	return false
}
