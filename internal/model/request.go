package model

type RegisterRequest struct {
	Username    string  `json:"username"`
	PhoneNumber string  `json:"phone_number"`
	Email       string  `json:"email"`
	DOB         string  `json:"DOB"`
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
	Diet        Diet    `json:"diet"`
	Password    string  `json:"password"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type UpdateUserRequest struct {
	UserID   int64    `json:"user_id"`
	Username *string  `json:"username,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Diet     *Diet    `json:"diet,omitempty"`
}

type StepUpdateRequest struct {
	UserID            int64  `json:"user_id"`
	Date              string `json:"date"`
	Steps             int64  `json:"steps"`
	MidnightStepCount int64  `json:"midnight_step_count"`
}
