package dto

import "github.com/spec-kit/tour-booking-service/internal/domain"

// UpdateProfileRequest changes profile fields on the caller's account. The
// password fields exist only so the handler can reject attempts to change
// the password through this route.
type UpdateProfileRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UserView is the client-facing account representation. It never carries
// password material or reset state.
type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Role  string `json:"role"`
}

// NewUserView maps a domain user to its sanitized representation.
func NewUserView(user *domain.User) UserView {
	return UserView{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Photo: user.Photo,
		Role:  string(user.Role),
	}
}

// NewUserViews maps a slice of domain users.
func NewUserViews(users []*domain.User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, NewUserView(user))
	}
	return views
}
