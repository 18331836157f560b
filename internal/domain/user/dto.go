package user

// UpdateMeRequest is the PATCH /users/me body; absent fields stay unchanged
type UpdateMeRequest struct {
	Email    *string `json:"email" validate:"omitempty,notblank,email,max=255"`
	Nickname *string `json:"nickname" validate:"omitempty,notblank,min=2,max=50"`
}

// MeResponse is the public view of the caller's account
type MeResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Points   int64  `json:"points"`
}

func NewMeResponse(u *User) MeResponse {
	return MeResponse{ID: u.ID, Email: u.Email, Nickname: u.Nickname, Points: u.Points}
}
