package users

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// MaxBulkIDs caps how many ids a single bulk request may carry.
const MaxBulkIDs = 100

// BulkDelete deletes every id independently. Including the actor's own id
// rejects the whole request before anything is deleted.
func (s *service) BulkDelete(ctx context.Context, actor Actor, ids []string) (BulkResult, error) {
	ids, err := normalizeIDs(ids)
	if err != nil {
		return BulkResult{}, err
	}
	if slices.Contains(ids, actor.ID) {
		return BulkResult{}, pkgerrors.New(pkgerrors.CodeInvalidOperation, "you cannot delete your own account")
	}
	canManageAdmins := enums.HasCapability(actor.Role, enums.CapUsersManageAdmins)

	return s.fanOut(ctx, ids, "users.bulk_delete.item_failed", func(ctx context.Context, id string) error {
		target, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if target.Role.IsPrivileged() && !canManageAdmins {
			return pkgerrors.New(pkgerrors.CodeForbidden, "administrator requires super admin")
		}
		return s.deleteOne(ctx, id)
	}), nil
}

// BulkSetVerified sets the verification flag on every id independently.
func (s *service) BulkSetVerified(ctx context.Context, ids []string, verified bool) (BulkResult, error) {
	ids, err := normalizeIDs(ids)
	if err != nil {
		return BulkResult{}, err
	}
	event := "users.bulk_unverify.item_failed"
	if verified {
		event = "users.bulk_verify.item_failed"
	}
	return s.fanOut(ctx, ids, event, func(ctx context.Context, id string) error {
		if err := s.repo.SetVerified(ctx, id, verified, s.now()); err != nil {
			return err
		}
		s.sessions.Forget(id)
		return nil
	}), nil
}

// fanOut runs op for each id with bounded concurrency. Failures are counted
// and logged; they never stop the remaining items.
func (s *service) fanOut(ctx context.Context, ids []string, event string, op func(context.Context, string) error) BulkResult {
	var done, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := op(ctx, id); err != nil {
				failed.Add(1)
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"target_user_id": id, "error": err.Error()}), event)
				return nil
			}
			done.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return BulkResult{Done: int(done.Load()), Failed: int(failed.Load())}
}

func normalizeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ids must not be empty")
	}
	if len(ids) > MaxBulkIDs {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d ids per request", MaxBulkIDs)
	}
	return ids, nil
}
