package userrole

// AssignRoleDTO is the body of PUT /user-roles/{userID}.
type AssignRoleDTO struct {
	Role string `json:"role" validate:"required"`
}
