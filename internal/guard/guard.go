// Package guard decides which tasks and profiles an identity may see or change.
package guard

import (
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// Action is an operation on a single task
type Action string

// Action constants
const (
	ActionCreate        Action = "create"
	ActionRetrieve      Action = "retrieve"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDelete        Action = "delete"
)

// Guard applies the owner-or-admin policy.
// With hideForeign set, a task owned by someone else is reported as missing
// instead of forbidden.
type Guard struct {
	hideForeign bool
}

// New creates a guard
func New(hideForeign bool) *Guard {
	return &Guard{hideForeign: hideForeign}
}

// ScopeQuery returns the filter every task listing for identity must use
func (g *Guard) ScopeQuery(identity *models.Identity) (models.TaskFilter, error) {
	if identity == nil {
		return models.TaskFilter{}, errs.ErrNotAuthenticated
	}
	if identity.IsAdmin {
		return models.TaskFilter{AllOwners: true}, nil
	}
	return models.TaskFilter{OwnerID: identity.ID}, nil
}

// Authorize checks whether identity may perform action on task. task is
// ignored for ActionCreate and must be non-nil otherwise.
func (g *Guard) Authorize(identity *models.Identity, task *models.Task, action Action) error {
	if identity == nil {
		return errs.ErrNotAuthenticated
	}
	if action == ActionCreate {
		return nil
	}
	if task == nil {
		return errs.ErrNotFound
	}
	if identity.IsAdmin || task.OwnerID == identity.ID {
		return nil
	}
	if g.hideForeign {
		return errs.ErrNotFound
	}
	return errs.ErrForbidden
}

// AuthorizeProfile checks whether identity may change the profile of targetID
func (g *Guard) AuthorizeProfile(identity *models.Identity, targetID int64) error {
	if identity == nil {
		return errs.ErrNotAuthenticated
	}
	if identity.IsAdmin || identity.ID == targetID {
		return nil
	}
	if g.hideForeign {
		return errs.ErrNotFound
	}
	return errs.ErrForbidden
}
