package auth

import "campus-management/app/models"

// Permission modules.
const (
	ModuleBranches  = "branches"
	ModuleUsers     = "users"
	ModuleClasses   = "classes"
	ModuleStudents  = "students"
	ModuleStaff     = "staff"
	ModuleFees      = "fees"
	ModulePayroll   = "payroll"
	ModuleFinance   = "finance"
	ModuleTextbooks = "textbooks"
	ModuleTransport = "transport"
	ModuleReceipts  = "receipts"
	ModuleActivity  = "activity"
	ModuleAccounts  = "accounts"
	ModuleReports   = "reports"
)

func Read(module string) string  { return module + ":read" }
func Write(module string) string { return module + ":write" }

var rolePermissions = map[string]map[string]bool{
	models.RoleAdmin: grant(
		[]string{ModuleBranches},
		[]string{
			ModuleUsers, ModuleClasses, ModuleStudents, ModuleStaff, ModuleFees, ModulePayroll,
			ModuleFinance, ModuleTextbooks, ModuleTransport, ModuleReceipts, ModuleActivity,
			ModuleAccounts, ModuleReports,
		},
	),
	models.RoleAccountant: grant(
		[]string{ModuleBranches, ModuleStudents, ModuleStaff, ModuleClasses, ModuleTransport},
		[]string{ModuleFees, ModulePayroll, ModuleFinance, ModuleAccounts, ModuleReceipts, ModuleReports},
	),
	models.RoleLibrarian: grant(
		[]string{ModuleBranches, ModuleStudents, ModuleClasses},
		[]string{ModuleTextbooks},
	),
	models.RoleTeacher: grant(
		[]string{ModuleBranches, ModuleStudents, ModuleClasses},
		nil,
	),
}

// grant gives read on readOnly and read+write on readWrite.
func grant(readOnly, readWrite []string) map[string]bool {
	perms := make(map[string]bool)
	for _, m := range readOnly {
		perms[Read(m)] = true
	}
	for _, m := range readWrite {
		perms[Read(m)] = true
		perms[Write(m)] = true
	}
	return perms
}

// HasPermission reports whether role holds permission. Super admin holds all of them.
func HasPermission(role, permission string) bool {
	if role == models.RoleSuperAdmin {
		return true
	}
	return rolePermissions[role][permission]
}

// Permissions lists what role may do, for the /me response.
func Permissions(role string) []string {
	if role == models.RoleSuperAdmin {
		return []string{"*"}
	}
	out := make([]string, 0, len(rolePermissions[role]))
	for p := range rolePermissions[role] {
		out = append(out, p)
	}
	return out
}
