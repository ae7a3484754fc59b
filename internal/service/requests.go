package service

type RegisterRequest struct {
	Name     string `json:"username" validate:"required,alphanum_underscore,min=3,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Name     string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Frequency is stored verbatim. Unknown values are read as daily.
type CreateHabitRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Frequency   string `json:"frequency" validate:"max=32"`
	// Defaults to 1 when omitted
	TargetCount *int `json:"target_count" validate:"omitempty,min=1"`
}

// Only provided fields are applied. Empty title and frequency count as not provided.
type UpdateHabitRequest struct {
	Title       string  `json:"title" validate:"max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Frequency   string  `json:"frequency" validate:"max=32"`
	TargetCount *int    `json:"target_count" validate:"omitempty,min=1"`
}

type PaginationOpts struct {
	Limit  int
	Offset int
}
