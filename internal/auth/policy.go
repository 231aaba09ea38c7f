package auth

import "github.com/iliyamo/casecraft/internal/model"

// Authorize is the single authorization policy for role-gated handlers:
// it reports whether the identity may act as the required role. Admins
// pass every gate; everyone else needs an exact role match. Handlers and
// middleware must route every role decision through here rather than
// comparing role strings themselves.
func Authorize(id Identity, requiredRole string) bool {
    if id.Role == model.RoleAdmin {
        return true
    }
    return id.Role == requiredRole
}
