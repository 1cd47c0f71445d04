package enums

// MemberRole is a user's role inside one store.
type MemberRole string

const (
	MemberRoleOwner MemberRole = "owner"
	MemberRoleAdmin MemberRole = "admin"
	// MemberRoleStaff may read the console but not act on orders.
	MemberRoleStaff MemberRole = "staff"
)

func (m MemberRole) String() string {
	return string(m)
}

func (m MemberRole) IsValid() bool {
	switch m {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleStaff:
		return true
	}
	return false
}

// ManagesOrders reports whether the role may transition orders, review
// payment proofs and broadcast to customers.
func (m MemberRole) ManagesOrders() bool {
	return m == MemberRoleOwner || m == MemberRoleAdmin
}

// OrderManagingRoles lists every role for which ManagesOrders is true.
func OrderManagingRoles() []MemberRole {
	return []MemberRole{MemberRoleOwner, MemberRoleAdmin}
}
