package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	DefaultRole               = "student"
	DefaultVerificationMethod = "email"
)

// Profile holds the optional registration details.
type Profile struct {
	Age           int    `json:"age,omitempty"`
	Gender        string `json:"gender,omitempty"`
	HomeGov       string `json:"homeGov,omitempty"`
	StudyGov      string `json:"studyGov,omitempty"`
	University    string `json:"university,omitempty"`
	UniEmail      string `json:"uniEmail,omitempty"`
	StudentStatus string `json:"studentStatus,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	RoleInfo1     string `json:"roleInfo1,omitempty"`
	RoleInfo2     string `json:"roleInfo2,omitempty"`
}

type User struct {
	ID                 string
	Name               string
	Email              string
	Phone              string
	PasswordHash       []byte
	Role               string
	VerificationMethod string
	VerificationCode   string
	Profile            Profile
	CreatedAt          time.Time
}

func newUserID() string {
	return bson.NewObjectID().Hex()
}

type profileEntity struct {
	Age           int    `bson:"age,omitempty"`
	Gender        string `bson:"gender,omitempty"`
	HomeGov       string `bson:"homeGov,omitempty"`
	StudyGov      string `bson:"studyGov,omitempty"`
	University    string `bson:"university,omitempty"`
	UniEmail      string `bson:"uniEmail,omitempty"`
	StudentStatus string `bson:"studentStatus,omitempty"`
	Purpose       string `bson:"purpose,omitempty"`
	PaymentMethod string `bson:"paymentMethod,omitempty"`
	RoleInfo1     string `bson:"roleInfo1,omitempty"`
	RoleInfo2     string `bson:"roleInfo2,omitempty"`
}

type userEntity struct {
	ID                 string        `bson:"_id"`
	Name               string        `bson:"name"`
	Email              string        `bson:"email"`
	Phone              string        `bson:"phone,omitempty"`
	Password           []byte        `bson:"password"`
	Role               string        `bson:"role"`
	VerificationMethod string        `bson:"verificationMethod"`
	VerificationCode   string        `bson:"verificationCode"`
	Profile            profileEntity `bson:",inline"`
	CreatedAt          time.Time     `bson:"createdAt"`
}

type userMapper struct{}

func (userMapper) ToEntity(u *User) *userEntity {
	return &userEntity{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Password:           u.PasswordHash,
		Role:               u.Role,
		VerificationMethod: u.VerificationMethod,
		VerificationCode:   u.VerificationCode,
		Profile:            profileEntity(u.Profile),
		CreatedAt:          u.CreatedAt,
	}
}

func (userMapper) ToDomain(e *userEntity) *User {
	return &User{
		ID:                 e.ID,
		Name:               e.Name,
		Email:              e.Email,
		Phone:              e.Phone,
		PasswordHash:       e.Password,
		Role:               e.Role,
		VerificationMethod: e.VerificationMethod,
		VerificationCode:   e.VerificationCode,
		Profile:            Profile(e.Profile),
		CreatedAt:          e.CreatedAt,
	}
}
