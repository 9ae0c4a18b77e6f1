package user

// ProfileResponse adds the landing page for the user's role.
type ProfileResponse struct {
	*User
	RedirectPath string `json:"redirect_path"`
}
