package user

import (
	"errors"
	"time"
)

type User struct {
	UID      string    `json:"uid" firestore:"uid"`
	Name     string    `json:"name" firestore:"name"`
	Email    string    `json:"email" firestore:"email"`
	PhotoURL string    `json:"photoURL" firestore:"photoURL"`
	Role     string    `json:"role" firestore:"role"`
	JoinAt   time.Time `json:"joinAt" firestore:"joinAt"`
}

func (u *User) SetID(id string) {
	u.UID = id
}

func (u User) Validate() error {
	if u.Email == "" {
		return errors.New("user profile missing email")
	}
	return nil
}
