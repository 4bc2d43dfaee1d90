// Package authoring defines the Author value type shared by origins and
// destinations along with the policy that decides which author a migrated
// change is attributed to.
package authoring
