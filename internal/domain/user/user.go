package user

import "time"

type User struct {
	ID           string     `json:"id"`
	Fullname     string     `json:"fullname"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	PhoneNumber  string     `json:"phoneNumber,omitempty"`
	IsVerified   bool       `json:"isVerified"`
	OTP          *string    `json:"-"` // set only while a verification/reset cycle is in flight
	OTPExpiry    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Projection is the safe subset returned from the API. It never carries the
// password hash or the OTP fields.
type Projection struct {
	ID          string `json:"id"`
	Fullname    string `json:"fullname"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

func (u User) Project() Projection {
	return Projection{
		ID:          u.ID,
		Fullname:    u.Fullname,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
	}
}

// HasOTP reports whether a code is currently in flight. The otp and otp_expiry
// columns are always written together, so checking both guards against a
// half-cleared record.
func (u User) HasOTP() bool {
	return u.OTP != nil && u.OTPExpiry != nil
}

func (u *User) SetOTP(code string, expiry time.Time) {
	u.OTP = &code
	u.OTPExpiry = &expiry
}

func (u *User) ClearOTP() {
	u.OTP = nil
	u.OTPExpiry = nil
}
