package reads

// CreateReadPayload starts a read when no status is given. With a status it
// records a past read as-is.
type CreateReadPayload struct {
	StartDate  string `json:"start_date,omitempty" validate:"omitempty,date"`
	FinishDate string `json:"finish_date,omitempty" validate:"omitempty,date"`
	Status     string `json:"status,omitempty" validate:"omitempty,read_status"`
}

type UpdateReadStatusPayload struct {
	Status     string `json:"status" validate:"required,read_status"`
	FinishDate string `json:"finish_date,omitempty" validate:"omitempty,date"`
}

type EditReadPayload struct {
	StartDate  *string  `json:"start_date,omitempty" validate:"omitempty,date"`
	FinishDate *string  `json:"finish_date,omitempty" validate:"omitempty,date"`
	Status     *string  `json:"status,omitempty" validate:"omitempty,read_status"`
	Clear      []string `json:"clear,omitempty" validate:"omitempty,dive,oneof=start_date finish_date"`
}
