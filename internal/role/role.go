// Package role maps free-form role claims onto the four canonical portal roles
// and decides which portal a signed-in user lands on.
package role

import "strings"

const (
	Admin       = "admin"
	HRManager   = "hr_manager"
	LineManager = "line_manager"
	Employee    = "employee"
)

const LoginPath = "/auth/login"

var aliases = map[string]string{
	"ADMIN":        Admin,
	"HR":           HRManager,
	"HR_MANAGER":   HRManager,
	"MANAGER":      LineManager,
	"LINE_MANAGER": LineManager,
	"EMPLOYEE":     Employee,
}

var redirects = map[string]string{
	Admin:       "/admin/dashboard",
	HRManager:   "/hr/dashboard",
	LineManager: "/manager/dashboard",
	Employee:    "/employee/dashboard",
}

// Canonical lists the closed set of roles in privilege order.
func Canonical() []string {
	return []string{Admin, HRManager, LineManager, Employee}
}

// NormalizeRoleValue maps role strings case-insensitively onto canonical
// values. Unrecognised input is returned unchanged.
func NormalizeRoleValue(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return raw
}

func IsCanonical(r string) bool {
	_, ok := redirects[r]
	return ok
}

// RedirectPath returns the portal root for a canonical role and the sign-in
// page for anything else.
func RedirectPath(r string) string {
	if path, ok := redirects[r]; ok {
		return path
	}
	return LoginPath
}
