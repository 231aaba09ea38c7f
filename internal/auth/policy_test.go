package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/casecraft/internal/model"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name     string
		role     string
		required string
		want     bool
	}{
		{"admin on admin route", model.RoleAdmin, model.RoleAdmin, true},
		{"admin on user route", model.RoleAdmin, model.RoleUser, true},
		{"user on user route", model.RoleUser, model.RoleUser, true},
		{"user on admin route", model.RoleUser, model.RoleAdmin, false},
		{"empty role", "", model.RoleUser, false},
		{"unknown role", "auditor", model.RoleAdmin, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Authorize(Identity{UserID: 1, Role: tc.role}, tc.required)
			require.Equal(t, tc.want, got)
		})
	}
}
