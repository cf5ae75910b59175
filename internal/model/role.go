package model

import "strings"

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // MASTER_ADMIN, ADMIN, SALES, ...
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleAdmin       = "ADMIN"
	RoleSales       = "SALES"
	RolePurchasing  = "PURCHASING"
	RoleWarehouse   = "WAREHOUSE"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{Code: RoleMasterAdmin, Name: "Master Administrator", Description: "Full system access with all privileges"},
	{Code: RoleAdmin, Name: "Administrator", Description: "Everything except user management"},
	{Code: RoleSales, Name: "Sales", Description: "Customers, pricing, quotes, orders and invoices"},
	{Code: RolePurchasing, Name: "Purchasing", Description: "Suppliers, purchase requests, orders and supplier invoices"},
	{Code: RoleWarehouse, Name: "Warehouse", Description: "Stock, receipts and shipping"},
}

var rolePrefixes = map[string][]string{
	RoleSales:      {"customer:", "pricing:", "quote:", "order:", "billing:", "product:view", "stock:view", "dashboard:"},
	RolePurchasing: {"supplier:", "purchase:", "product:", "stock:view", "dashboard:"},
	RoleWarehouse:  {"stock:", "order:view", "order:manage", "purchase:view", "product:view", "dashboard:"},
}

// DefaultPrivilegesFor picks the seeded privileges of a role from all privileges.
func DefaultPrivilegesFor(roleCode string, all []Privilege) []Privilege {
	var out []Privilege
	for _, p := range all {
		switch roleCode {
		case RoleMasterAdmin:
			out = append(out, p)
		case RoleAdmin:
			if !AdminExcluded[p.Code] {
				out = append(out, p)
			}
		default:
			for _, prefix := range rolePrefixes[roleCode] {
				if strings.HasPrefix(p.Code, prefix) {
					out = append(out, p)
					break
				}
			}
		}
	}
	return out
}
