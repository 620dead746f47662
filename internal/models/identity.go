package models

import (
	"errors"
	"strings"
)

// Role is the authenticated caller's role as carried in the bearer token.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var ErrUnknownRole = errors.New("unknown role")

// Identity is an authenticated caller. It is either a Teacher or a Student;
// no other implementation exists outside this package.
type Identity interface {
	UserID() string
	Role() Role
	isIdentity()
}

type Teacher struct {
	ID string
}

func (t Teacher) UserID() string { return t.ID }
func (t Teacher) Role() Role     { return RoleTeacher }
func (Teacher) isIdentity()      {}

type Student struct {
	ID string
}

func (s Student) UserID() string { return s.ID }
func (s Student) Role() Role     { return RoleStudent }
func (Student) isIdentity()      {}

// ParseIdentity builds an Identity from token claims.
func ParseIdentity(id string, role string) (Identity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrUnknownRole
	}
	switch Role(strings.ToLower(strings.TrimSpace(role))) {
	case RoleTeacher:
		return Teacher{ID: id}, nil
	case RoleStudent:
		return Student{ID: id}, nil
	default:
		return nil, ErrUnknownRole
	}
}
