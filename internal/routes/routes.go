// Package routes builds the canonical paths used as redirect targets.
package routes

import (
	"fmt"
	"net/url"
)

const (
	Index        = "/"
	CreatePost   = "/posts/create/"
	EditProfile  = "/profile/edit/"
	Login        = "/auth/login/"
	Logout       = "/auth/logout/"
	Registration = "/auth/registration/"
)

// PostDetail is the detail page of a post.
func PostDetail(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// EditPost is the edit form of a post.
func EditPost(id uint) string {
	return fmt.Sprintf("/posts/%d/edit/", id)
}

// DeletePost is the delete confirmation of a post.
func DeletePost(id uint) string {
	return fmt.Sprintf("/posts/%d/delete/", id)
}

// AddComment is the comment submission endpoint of a post.
func AddComment(postID uint) string {
	return fmt.Sprintf("/posts/%d/comment/", postID)
}

func EditComment(postID, commentID uint) string {
	return fmt.Sprintf("/posts/%d/edit_comment/%d/", postID, commentID)
}

func DeleteComment(postID, commentID uint) string {
	return fmt.Sprintf("/posts/%d/delete_comment/%d/", postID, commentID)
}

// Profile is the public profile page of a user.
func Profile(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

// Category is the feed page of a category.
func Category(slug string) string {
	return "/category/" + url.PathEscape(slug) + "/"
}

// LoginWithNext is the login page that returns to next after signing in.
func LoginWithNext(next string) string {
	if next == "" {
		return Login
	}
	return Login + "?next=" + url.QueryEscape(next)
}
