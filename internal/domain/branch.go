package domain

// RootBranch is created for every account at signup and cannot be deleted
// through the normal branch deletion flow.
const RootBranch = "Home"

// Branch is a node in an owner's organization tree, identified by its
// slash-delimited path. Paths are unique per owner and immutable once
// created; there is no rename operation.
type Branch struct {
	ID      int64  `json:"bid"`
	OwnerID int64  `json:"uid"`
	Path    string `json:"path"`
}

// User is an account row. The password field holds the bcrypt hash, never
// the plaintext.
type User struct {
	ID       int64  `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}
