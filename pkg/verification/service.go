// Package verification governs the seller-application workflow and the
// customer/seller role toggle. Every operation that flips the role
// reports SignOut=true so the calling layer can invalidate sessions that
// still carry the old role.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/marketplace/pkg/auth"
	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"github.com/example/marketplace/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuditSink interface {
	CreateAuditLog(ctx context.Context, entry *repository.AuditEntry) error
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	audit  AuditSink
}

func NewService(db *gorm.DB, logger *zap.Logger, audit AuditSink) *Service {
	return &Service{db: db, logger: logger, audit: audit}
}

// Result carries the updated user plus the session-invalidation signal.
// SignOut is true exactly when the user's role changed.
type Result struct {
	User    *models.User
	SignOut bool
}

// RequestSeller handles a customer asking for the seller role.
//
// Fast path: a previously approved seller (who reverted to customer at
// some point) gets the role back immediately, without a new review and
// without resetting the original approval timestamp. Everyone else goes
// through validation and lands in pending for an admin to decide.
// Resubmission after rejection re-enters pending with replaced fields.
func (s *Service) RequestSeller(ctx context.Context, userID string, app Application) (*Result, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleSeller {
		return &Result{User: user}, nil
	}

	if user.VerificationStatus == models.VerificationApproved {
		updates := map[string]interface{}{
			"role":       models.RoleSeller,
			"is_verify":  true,
			"updated_at": time.Now(),
		}
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to restore seller role for %s: %v: %w", userID, err, errs.ErrPersistence)
		}
		user.Role = models.RoleSeller
		user.IsVerify = true

		s.logger.Info("Seller role restored without review",
			zap.String("user_id", userID))

		return &Result{User: user, SignOut: true}, nil
	}

	now := time.Now()
	if err := validate(app, now); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"verification_status":           models.VerificationPending,
		"verification_requested_at":     now,
		"verification_rejection_reason": "",
		"seller_type":                   app.SellerType,
		"phone":                         app.Phone,
		"updated_at":                    now,
	}
	switch app.SellerType {
	case models.SellerTypeIndividual:
		updates["passport_number"] = app.PassportNumber
		updates["passport_issuer"] = app.PassportIssuer
		updates["passport_issued_at"] = app.PassportIssuedAt
	case models.SellerTypeCompany:
		// Pre-check for a friendlier error; the unique index on inn is
		// the final authority if a concurrent application slips past.
		if err := s.checkINNAvailable(ctx, userID, app.INN); err != nil {
			return nil, err
		}
		updates["inn"] = app.INN
		updates["company_name"] = app.CompanyName
		updates["company_address"] = app.CompanyAddress
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("INN %s already registered: %w", app.INN, errs.ErrConflict)
		}
		return nil, fmt.Errorf("failed to submit application for %s: %v: %w", userID, err, errs.ErrPersistence)
	}

	user, err = s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Seller application submitted",
		zap.String("user_id", userID),
		zap.String("seller_type", app.SellerType))

	// Role did not change; the session stays valid.
	return &Result{User: user}, nil
}

// Approve moves a pending application to approved and grants the seller
// role. Admin only; callers without the capability fail closed.
func (s *Service) Approve(ctx context.Context, principal auth.Principal, userID string) (*Result, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	if !auth.CanReviewVerification(principal) {
		return nil, errs.ErrForbidden
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.VerificationStatus != models.VerificationPending {
		return nil, fmt.Errorf("cannot approve application in status %q: %w",
			user.VerificationStatus, errs.ErrInvalidTransition)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"role":                          models.RoleSeller,
		"is_verify":                     true,
		"verification_status":           models.VerificationApproved,
		"verification_approved_at":      now,
		"verification_rejection_reason": "",
		"updated_at":                    now,
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to approve application for %s: %v: %w", userID, err, errs.ErrPersistence)
	}

	user.Role = models.RoleSeller
	user.IsVerify = true
	user.VerificationStatus = models.VerificationApproved
	user.VerificationApprovedAt = &now
	user.VerificationRejectionReason = ""

	s.auditAsync(principal.UserID, "verification_approved", userID, bson.M{
		"seller_type": user.SellerType,
	})

	s.logger.Info("Seller application approved",
		zap.String("user_id", userID),
		zap.String("admin_id", principal.UserID))

	return &Result{User: user, SignOut: true}, nil
}

// Reject turns a pending application down. The reason is mandatory and
// stored for the user to see; the role stays customer, so no sign-out.
func (s *Service) Reject(ctx context.Context, principal auth.Principal, userID, reason string) (*Result, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	if !auth.CanReviewVerification(principal) {
		return nil, errs.ErrForbidden
	}
	if reason == "" {
		return nil, errs.FieldErrors{"reason": "required"}
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.VerificationStatus != models.VerificationPending {
		return nil, fmt.Errorf("cannot reject application in status %q: %w",
			user.VerificationStatus, errs.ErrInvalidTransition)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"verification_status":           models.VerificationRejected,
		"verification_rejected_at":      now,
		"verification_rejection_reason": reason,
		"updated_at":                    now,
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to reject application for %s: %v: %w", userID, err, errs.ErrPersistence)
	}

	user.VerificationStatus = models.VerificationRejected
	user.VerificationRejectedAt = &now
	user.VerificationRejectionReason = reason

	s.auditAsync(principal.UserID, "verification_rejected", userID, bson.M{
		"reason": reason,
	})

	s.logger.Info("Seller application rejected",
		zap.String("user_id", userID),
		zap.String("admin_id", principal.UserID))

	return &Result{User: user}, nil
}

// RevertToCustomer drops the seller role unconditionally. The approval
// record stays so a later re-request takes the fast path; is_verify goes
// false because it must never be true for a non-seller.
func (s *Service) RevertToCustomer(ctx context.Context, userID string) (*Result, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	roleChanged := user.Role == models.RoleSeller

	updates := map[string]interface{}{
		"role":       models.RoleCustomer,
		"is_verify":  false,
		"updated_at": time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to revert role for %s: %v: %w", userID, err, errs.ErrPersistence)
	}

	user.Role = models.RoleCustomer
	user.IsVerify = false

	if roleChanged {
		s.logger.Info("Seller reverted to customer", zap.String("user_id", userID))
	}

	return &Result{User: user, SignOut: roleChanged}, nil
}

// ListPending returns applications awaiting review, oldest first.
func (s *Service) ListPending(ctx context.Context, principal auth.Principal) ([]models.User, error) {
	if !principal.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	if !auth.CanReviewVerification(principal) {
		return nil, errs.ErrForbidden
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("verification_status = ?", models.VerificationPending).
		Order("verification_requested_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending applications: %v: %w", err, errs.ErrPersistence)
	}
	return users, nil
}

func (s *Service) checkINNAvailable(ctx context.Context, userID, inn string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("inn = ? AND id <> ?", inn, userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check INN uniqueness: %v: %w", err, errs.ErrPersistence)
	}
	if count > 0 {
		return fmt.Errorf("INN %s already registered: %w", inn, errs.ErrConflict)
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user %s: %v: %w", userID, err, errs.ErrPersistence)
	}
	return &user, nil
}

func (s *Service) auditAsync(actor, action, entityID string, data bson.M) {
	if s.audit == nil {
		return
	}
	entry := &repository.AuditEntry{
		Actor:    actor,
		Action:   action,
		EntityID: entityID,
		Data:     data,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("Failed to write audit entry",
				zap.String("action", action),
				zap.String("entity_id", entityID),
				zap.Error(err))
		}
	}()
}
