package repository

// ElevationRepository performs the atomic completion of an admin elevation.
type ElevationRepository interface {
	// PromoteAndConsume upgrades the user to the admin role and deletes the
	// redeemed code in a single transaction. Deleting a code that is already
	// gone is a no-op, so two concurrent finalizations cannot fail each other.
	PromoteAndConsume(userID, codeID uint) error
}
