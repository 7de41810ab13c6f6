package dto

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type RegisterResponse struct {
	Username string `json:"username"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken    string `json:"access_token"`
	Username       string `json:"username"`
	CurrentSession string `json:"current_session"`
}

type AdminLoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}
