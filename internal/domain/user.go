package domain

// Address is a shipping or billing address.
type Address struct {
	Name    string `json:"name,omitempty" validate:"required"`
	Phone   string `json:"phone,omitempty" validate:"required"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// User is the signed-in account as returned by the API.
type User struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone,omitempty"`
	Role    string   `json:"role,omitempty"`
	Address *Address `json:"address,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == "admin"
}
