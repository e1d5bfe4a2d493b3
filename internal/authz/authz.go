// Package authz decides which viewer may read or change which post and comment.
//
// Every rule is a pure function of the viewer and the resource; callers turn
// the returned decision into a response.
package authz

import (
	"time"

	"blogicum/internal/models"
	"blogicum/internal/visibility"
)

// Viewer is the identity attached to a request. The zero value is anonymous.
type Viewer struct {
	ID       uint
	Username string
}

// Anonymous is the viewer of an unauthenticated request.
var Anonymous = Viewer{}

// Authenticated reports whether the viewer signed in.
func (v Viewer) Authenticated() bool {
	return v.ID != 0
}

// Is reports whether the viewer is the user with the given id.
func (v Viewer) Is(userID uint) bool {
	return v.Authenticated() && v.ID == userID
}

// Outcome is the result of a login guard.
type Outcome int

const (
	Proceed Outcome = iota
	RedirectToLogin
)

// RequireLogin gates actions that need an identity.
func RequireLogin(v Viewer) Outcome {
	if v.Authenticated() {
		return Proceed
	}
	return RedirectToLogin
}

// Decision is the result of an ownership check.
type Decision int

const (
	Allow Decision = iota
	// DenyRedirect sends the viewer back to the post detail page.
	DenyRedirect
	// DenyNotFound hides the resource's existence.
	DenyNotFound
	// DenyLogin asks the viewer to sign in first.
	DenyLogin
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyRedirect:
		return "deny_redirect"
	case DenyNotFound:
		return "deny_not_found"
	case DenyLogin:
		return "deny_login"
	}
	return "unknown"
}

// CanView reports whether the viewer may open the post detail page.
// Visible posts are open to everyone; anything else only to its author.
func CanView(v Viewer, post *models.Post, now time.Time) bool {
	if visibility.IsVisible(post, now) {
		return true
	}
	return CanPreview(v, post)
}

// CanPreview reports whether the viewer may see the post regardless of its
// publication state.
func CanPreview(v Viewer, post *models.Post) bool {
	return v.Is(post.AuthorID)
}

// PostAccess decides edit and delete of a post. Non-owners are redirected
// rather than told the action failed.
func PostAccess(v Viewer, post *models.Post) Decision {
	if !v.Authenticated() {
		return DenyLogin
	}
	if !v.Is(post.AuthorID) {
		return DenyRedirect
	}
	return Allow
}

// CommentAccess decides edit and delete of a comment. Non-owners get
// NotFound so the comment's existence is not revealed.
func CommentAccess(v Viewer, comment *models.Comment) Decision {
	if !v.Authenticated() {
		return DenyLogin
	}
	if !v.Is(comment.AuthorID) {
		return DenyNotFound
	}
	return Allow
}
