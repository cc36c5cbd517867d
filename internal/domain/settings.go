package domain

// Settings is the single configuracion row.
type Settings struct {
	DeliveryEnabled bool `json:"domicilios_activos"`
}

// User is a staff account allowed to log in.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Claims is the identity attached to an authenticated request.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}
