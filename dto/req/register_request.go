package req

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Name        string `json:"name" validate:"omitempty,min=2,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=8,max=20"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	// Identifier accepts a username, an email or a phone number.
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type EditProfileRequest struct {
	Name           string `json:"name" validate:"omitempty,min=2,max=255"`
	Email          string `json:"email" validate:"omitempty,email"`
	PhoneNumber    string `json:"phoneNumber" validate:"omitempty,min=8,max=20"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
}
