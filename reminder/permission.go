package reminder

import (
	"context"
	"fmt"
)

// Permission to show alerts
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ParsePermission treats anything unrecognised as not yet asked
func ParsePermission(s string) Permission {
	switch Permission(s) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

// PermissionStore persists the permission answer
type PermissionStore interface {
	Permission() (string, error)
	SetPermission(permission string) error
}

// Prompter asks the user whether alerts may be shown
type Prompter interface {
	Prompt(ctx context.Context) (bool, error)
}

// RequestPermission asks once. An earlier answer is returned without prompting again.
// A grant is confirmed with EnabledAlert; a failed confirmation does not undo it.
func RequestPermission(ctx context.Context, store PermissionStore, prompter Prompter, notifier Notifier) (Permission, error) {
	stored, err := store.Permission()
	if err != nil {
		return PermissionDefault, fmt.Errorf("failed to read permission: %w", err)
	}

	current := ParsePermission(stored)
	if current != PermissionDefault {
		return current, nil
	}

	granted, err := prompter.Prompt(ctx)
	if err != nil {
		return PermissionDefault, fmt.Errorf("failed to prompt for permission: %w", err)
	}

	answer := PermissionDenied
	if granted {
		answer = PermissionGranted
	}

	if err := store.SetPermission(string(answer)); err != nil {
		return PermissionDefault, fmt.Errorf("failed to save permission: %w", err)
	}

	if answer == PermissionGranted && notifier != nil {
		if err := notifier.Notify(ctx, EnabledAlert()); err != nil {
			return answer, fmt.Errorf("permission granted but confirmation failed: %w", err)
		}
	}

	return answer, nil
}
