// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access is the single authorization decision point of Onnanoko.

Every service asks [Can] (or [Require]) before reading restricted data or
mutating anything, whether the call came from the REST collections or from the
dashboard/admin endpoints. Handlers never compare roles themselves.

# Rule Set

  - Public: read approved images, all characters and taxonomy.
  - Authenticated: upload images; edit and delete own images; manage own account.
  - Staff: everything above plus content administration, moderation, user
    management and site settings.
  - Superuser: additionally manages other staff and superuser accounts.
*/
package access

import (
	"fmt"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
)

// # Actors

// Actor is the identity a request acts as. The zero value is anonymous.
type Actor struct {
	UserID   string
	Username string
	Role     sec.UserRole
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor { return Actor{} }

// FromClaims converts verified token claims into an [Actor].
func FromClaims(claims *sec.AuthClaims) Actor {
	if claims == nil {
		return Anonymous()
	}
	return Actor{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     sec.UserRole(claims.Role),
	}
}

// Authenticated reports whether the actor has an identity.
func (actor Actor) Authenticated() bool { return actor.UserID != "" }

// IsStaff reports whether the actor holds elevated privilege.
func (actor Actor) IsStaff() bool { return actor.Authenticated() && actor.Role.IsStaff() }

// IsSuperuser reports whether the actor is a superuser.
func (actor Actor) IsSuperuser() bool { return actor.Authenticated() && actor.Role.IsSuperuser() }

// owns reports whether the actor is the given owner.
func (actor Actor) owns(ownerID string) bool {
	return actor.Authenticated() && ownerID != "" && actor.UserID == ownerID
}

// # Actions

// Action is a verb checked against a resource.
type Action string

const (
	ActionRead     Action = "read"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionModerate Action = "moderate"

	// ActionPromote grants the superuser role to an account.
	ActionPromote Action = "promote"
)

// # Resources

// Kind identifies the class of entity being checked.
type Kind string

const (
	KindTaxonomy   Kind = "taxonomy"
	KindCharacter  Kind = "character"
	KindImage      Kind = "image"
	KindAccount    Kind = "account"
	KindUser       Kind = "user"
	KindSettings   Kind = "settings"
	KindAdminPanel Kind = "admin_panel"
)

// Resource describes the entity an action targets. Only the attributes the
// rules look at are carried.
type Resource struct {
	Kind Kind

	// OwnerID is the uploader of an image or the subject of an account/user.
	OwnerID string

	// Approved is the moderation state of an image.
	Approved bool

	// Superuser marks a user resource whose subject is a superuser.
	Superuser bool
}

// Taxonomy describes any Series, Group or Tag.
func Taxonomy() Resource { return Resource{Kind: KindTaxonomy} }

// Character describes any character.
func Character() Resource { return Resource{Kind: KindCharacter} }

// Image describes an image uploaded by ownerID.
func Image(ownerID string, approved bool) Resource {
	return Resource{Kind: KindImage, OwnerID: ownerID, Approved: approved}
}

// NewImage describes an image that does not exist yet.
func NewImage() Resource { return Resource{Kind: KindImage} }

// Account describes the self-service account of userID.
func Account(userID string) Resource { return Resource{Kind: KindAccount, OwnerID: userID} }

// User describes an account managed from the admin panel.
func User(userID string, superuser bool) Resource {
	return Resource{Kind: KindUser, OwnerID: userID, Superuser: superuser}
}

// Settings describes the site-wide settings.
func Settings() Resource { return Resource{Kind: KindSettings} }

// AdminPanel describes staff-only aggregate views.
func AdminPanel() Resource { return Resource{Kind: KindAdminPanel} }

// # Policy

// Can reports whether actor may perform action on resource.
func Can(actor Actor, action Action, resource Resource) bool {
	switch resource.Kind {

	case KindTaxonomy:
		switch action {
		case ActionRead:
			return true
		case ActionCreate, ActionUpdate, ActionDelete:
			return actor.Authenticated()
		}
		return false

	case KindCharacter:
		if action == ActionRead {
			return true
		}
		return actor.IsStaff()

	case KindImage:
		switch action {
		case ActionRead:
			return resource.Approved || actor.IsStaff() || actor.owns(resource.OwnerID)
		case ActionCreate:
			return actor.Authenticated()
		case ActionUpdate, ActionDelete:
			return actor.IsStaff() || actor.owns(resource.OwnerID)
		case ActionModerate:
			return actor.IsStaff()
		}
		return false

	case KindAccount:
		switch action {
		case ActionRead, ActionUpdate, ActionDelete:
			return actor.owns(resource.OwnerID)
		}
		return false

	case KindUser:
		if !actor.IsStaff() {
			return false
		}
		switch action {
		case ActionRead:
			return true
		case ActionUpdate:
			return !resource.Superuser || actor.IsSuperuser()
		case ActionDelete:
			if actor.UserID == resource.OwnerID {
				return false
			}
			return !resource.Superuser || actor.IsSuperuser()
		case ActionPromote:
			return actor.IsSuperuser()
		}
		return false

	case KindSettings, KindAdminPanel:
		return actor.IsStaff()
	}

	return false
}

// Require returns a permission error when [Can] refuses.
func Require(actor Actor, action Action, resource Resource) error {
	if Can(actor, action, resource) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("You do not have permission to %s this %s", action, humanKind(resource.Kind)))
}

func humanKind(kind Kind) string {
	switch kind {
	case KindAdminPanel:
		return "admin panel"
	default:
		return string(kind)
	}
}
