package authz

import "studiorit/internal/models"

const (
	RankVolunteer   = 0
	RankJuniorCore  = 1
	RankSeniorCore  = 2
	RankCoordinator = 3
	RankAdmin       = 4

	rankUnknown = -1
)

// Rank returns the position of role in the hierarchy, or -1 for unknown roles.
func Rank(role models.Role) int {
	switch role {
	case models.RoleVolunteer:
		return RankVolunteer
	case models.RoleJuniorCore:
		return RankJuniorCore
	case models.RoleSeniorCore:
		return RankSeniorCore
	case models.RoleCoordinator:
		return RankCoordinator
	case models.RoleAdmin:
		return RankAdmin
	}
	return rankUnknown
}

// HasPermission reports whether actor ranks at or above required.
// An unknown role on either side never grants permission.
func HasPermission(actor, required models.Role) bool {
	a, r := Rank(actor), Rank(required)
	if a == rankUnknown || r == rankUnknown {
		return false
	}
	return a >= r
}

func IsAdmin(role models.Role) bool {
	return HasPermission(role, models.RoleAdmin)
}

// IsElevated roles see every project and task in listings.
func IsElevated(role models.Role) bool {
	return HasPermission(role, models.RoleCoordinator)
}

func ParseRole(v string) (models.Role, bool) {
	r := models.Role(v)
	return r, r.Valid()
}
