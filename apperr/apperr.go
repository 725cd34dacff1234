// Package apperr defines the error taxonomy shared by every service:
// validation failures caught before I/O, authorization denials, missing
// documents, and remote store/provider failures.
package apperr

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Message)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

func Authorization(action string) error {
	return &AuthorizationError{Action: action}
}

type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s not found", e.Collection, e.ID)
}

func NotFound(collection, id string) error {
	return &NotFoundError{Collection: collection, ID: id}
}

// RemoteError wraps a store or provider failure so callers can tell it apart
// from local errors. The wrapped cause stays reachable through errors.Is/As.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func Remote(op string, err error) error {
	return &RemoteError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuthorization(err error) bool {
	var a *AuthorizationError
	return errors.As(err, &a)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsRemote(err error) bool {
	var r *RemoteError
	return errors.As(err, &r)
}
