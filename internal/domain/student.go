package domain

// Role of a student within the space.
type Role string

const (
	RoleStudent Role = "student"
	RoleManager Role = "manager"
)

// Student identifies a member of the space. Records are immutable and owned
// by the student directory; the booking core only compares them by ID.
type Student struct {
	ID            string
	StudentNumber string
	Name          string
	Role          Role
}
