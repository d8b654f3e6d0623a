package entity

// Roles que viajan en el JWT y usa el middleware RBAC.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)
