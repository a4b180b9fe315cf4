package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttakeda/budgetbot/internal/domain/entity"
)

func TestAccessService_CanApprove(t *testing.T) {
	tests := []struct {
		name         string
		granted      []string
		fallbackRole string
		roles        []string
		want         bool
		wantErr      error
	}{
		{
			name:    "unconfigured scope",
			granted: []string{},
			roles:   []string{"approvers"},
			wantErr: entity.ErrScopeNotConfigured,
		},
		{
			name:    "granted role matches",
			granted: []string{"approvers", "finance"},
			roles:   []string{"finance"},
			want:    true,
		},
		{
			name:    "no role matches",
			granted: []string{"approvers"},
			roles:   []string{"interns", "guests"},
			want:    false,
		},
		{
			name:         "fallback role authorizes empty scope",
			granted:      []string{},
			fallbackRole: "platform-admins",
			roles:        []string{"platform-admins"},
			want:         true,
		},
		{
			name:         "fallback role works alongside grants",
			granted:      []string{"approvers"},
			fallbackRole: "platform-admins",
			roles:        []string{"platform-admins"},
			want:         true,
		},
		{
			name:    "no roles at all",
			granted: []string{"approvers"},
			roles:   nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grantRepo := &mockGrantRepo{
				listRolesFunc: func(ctx context.Context, scope string) ([]string, error) {
					return tt.granted, nil
				},
			}
			svc := NewAccessService(grantRepo, tt.fallbackRole, &mockLogger{})

			ok, err := svc.CanApprove(context.Background(), "team-1", tt.roles)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAccessService_GrantRole(t *testing.T) {
	var granted *entity.AccessGrant
	grantRepo := &mockGrantRepo{
		grantFunc: func(ctx context.Context, g *entity.AccessGrant) error {
			granted = g
			return nil
		},
	}
	svc := NewAccessService(grantRepo, "", &mockLogger{})

	require.Error(t, svc.GrantRole(context.Background(), "team-1", "", "admin"))
	assert.Nil(t, granted)

	require.NoError(t, svc.GrantRole(context.Background(), "team-1", "approvers", "admin"))
	require.NotNil(t, granted)
	assert.Equal(t, "team-1", granted.Scope)
	assert.Equal(t, "approvers", granted.RoleID)
	assert.Equal(t, "admin", granted.GrantedBy)
}
