package models

import "time"

const (
	RoleAdmin      = "Admin"
	RoleTechnician = "Technician"
)

// StaffRoles are the roles allowed on internal endpoints.
var StaffRoles = []string{RoleAdmin, RoleTechnician}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"` // Admin | Technician
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Technician is the public projection returned by the technicians listing.
type Technician struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
