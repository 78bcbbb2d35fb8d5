package domain

import "fmt"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

// Identity is the already-authenticated caller.
type Identity struct {
	UserID int32
	Role   Role
}

func (i Identity) IsStaff() bool {
	return i.Role == RoleEmployee || i.Role == RoleAdmin
}

// Authorize checks that the caller may see or act on a request as its requester.
func (i Identity) Authorize(req *BorrowingRequest) error {
	if i.IsStaff() || req.RequesterID == i.UserID {
		return nil
	}
	return fmt.Errorf("request %d belongs to another user: %w", req.ID, ErrPermissionDenied)
}
