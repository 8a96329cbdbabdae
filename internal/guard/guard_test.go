package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

var (
	alice = &models.Identity{ID: 1, Username: "alice"}
	bob   = &models.Identity{ID: 2, Username: "bob"}
	root  = &models.Identity{ID: 3, Username: "root", IsAdmin: true}

	aliceTask = &models.Task{ID: 10, OwnerID: 1}
)

func TestScopeQuery(t *testing.T) {
	g := New(false)

	f, err := g.ScopeQuery(alice)
	require.NoError(t, err)
	assert.Equal(t, models.TaskFilter{OwnerID: 1}, f)

	f, err = g.ScopeQuery(root)
	require.NoError(t, err)
	assert.True(t, f.AllOwners)

	_, err = g.ScopeQuery(nil)
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)
}

func TestAuthorize(t *testing.T) {
	actions := []Action{ActionRetrieve, ActionUpdate, ActionPartialUpdate, ActionDelete}

	tests := []struct {
		name        string
		hideForeign bool
		identity    *models.Identity
		want        error
	}{
		{"owner", false, alice, nil},
		{"admin", false, root, nil},
		{"non-owner forbidden", false, bob, errs.ErrForbidden},
		{"non-owner hidden", true, bob, errs.ErrNotFound},
		{"owner with hiding", true, alice, nil},
		{"anonymous", false, nil, errs.ErrNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.hideForeign)
			for _, action := range actions {
				err := g.Authorize(tt.identity, aliceTask, action)
				if tt.want == nil {
					assert.NoError(t, err, action)
				} else {
					assert.ErrorIs(t, err, tt.want, action)
				}
			}
		})
	}
}

func TestAuthorizeCreate(t *testing.T) {
	g := New(false)
	assert.NoError(t, g.Authorize(bob, nil, ActionCreate))
	assert.ErrorIs(t, g.Authorize(nil, nil, ActionCreate), errs.ErrNotAuthenticated)
}

func TestAuthorizeProfile(t *testing.T) {
	g := New(false)
	assert.NoError(t, g.AuthorizeProfile(alice, alice.ID))
	assert.NoError(t, g.AuthorizeProfile(root, alice.ID))
	assert.ErrorIs(t, g.AuthorizeProfile(bob, alice.ID), errs.ErrForbidden)
	assert.ErrorIs(t, New(true).AuthorizeProfile(bob, alice.ID), errs.ErrNotFound)
	assert.ErrorIs(t, g.AuthorizeProfile(nil, alice.ID), errs.ErrNotAuthenticated)
}
