package domain

import "time"

const DefaultAvatar = "default.jpg"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"date_joined"`
}

type Profile struct {
	UserID int64  `json:"user_id"`
	Image  string `json:"image"`
	Bio    string `json:"bio"`
}

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

type SignupInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password1" validate:"required,min=8,passwordbytes"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserUpdateInput and ProfileUpdateInput are the two halves of one profile
// edit submission.
type UserUpdateInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type ProfileUpdateInput struct {
	Bio string `json:"bio" validate:"max=500"`
}

type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Session struct {
	User  User  `json:"user"`
	Token Token `json:"access"`
}

// ProfilePage is everything the account page shows for its owner.
type ProfilePage struct {
	User        User         `json:"user"`
	Profile     Profile      `json:"profile"`
	Experiences []Experience `json:"experiences"`
	Bookings    []Booking    `json:"bookings"`
}
