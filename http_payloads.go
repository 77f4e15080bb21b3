package library

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func usernameRules() []validation.Rule {
	return []validation.Rule{validation.Length(3, 50), validation.Match(usernameRe)}
}

func passwordRules() []validation.Rule {
	return []validation.Rule{validation.Length(8, 100)}
}

// LoginRequest payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, append([]validation.Rule{validation.Required}, usernameRules()...)...),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, append([]validation.Rule{validation.Required}, passwordRules()...)...),
	)
}

// ConfirmRequest payload
type ConfirmRequest struct {
	Token string `json:"token"`
}

// Validate will run validation rules
func (r ConfirmRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

// UpdateAccountRequest is a partial account update
type UpdateAccountRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Banned   *bool   `json:"banned"`
}

// Validate will run validation rules
func (r UpdateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, append([]validation.Rule{validation.NilOrNotEmpty}, usernameRules()...)...),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.Password, append([]validation.Rule{validation.NilOrNotEmpty}, passwordRules()...)...),
	)
}

// Changes converts the payload into lifecycle changes
func (r UpdateAccountRequest) Changes() AccountChanges {
	return AccountChanges{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Banned:   r.Banned,
	}
}

// CreateAdminRequest payload
type CreateAdminRequest struct {
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	Password    string            `json:"password"`
	Permissions *PermissionsPatch `json:"permissions"`
}

// Validate will run validation rules
func (r CreateAdminRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, append([]validation.Rule{validation.Required}, usernameRules()...)...),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Password, append([]validation.Rule{validation.Required}, passwordRules()...)...),
	)
}

// UpdateAdminRequest is a partial admin update
type UpdateAdminRequest struct {
	Username    *string           `json:"username"`
	Email       *string           `json:"email"`
	Password    *string           `json:"password"`
	Permissions *PermissionsPatch `json:"permissions"`
}

// Validate will run validation rules
func (r UpdateAdminRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, append([]validation.Rule{validation.NilOrNotEmpty}, usernameRules()...)...),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Password, append([]validation.Rule{validation.NilOrNotEmpty}, passwordRules()...)...),
	)
}

// LibraryRequest adds a book to an account library
type LibraryRequest struct {
	BookID string `json:"bookId"`
}

// Validate will run validation rules
func (r LibraryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, validation.Required, is.UUID),
	)
}

// AuthorRequest creates or replaces author fields
type AuthorRequest struct {
	Name      *string `json:"name"`
	Summary   *string `json:"summary"`
	ImgURL    *string `json:"imgUrl"`
	BirthYear *string `json:"birthYear"`
	DeathYear *string `json:"deathYear"`
}

// ValidateCreate requires the name
func (r AuthorRequest) ValidateCreate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ImgURL, validation.NilOrNotEmpty, is.URL),
	)
}

// Validate checks a partial update
func (r AuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.ImgURL, validation.NilOrNotEmpty, is.URL),
	)
}

// Apply copies the present fields onto the author
func (r AuthorRequest) Apply(a *Author) {
	setString(&a.Name, r.Name)
	setString(&a.Summary, r.Summary)
	setString(&a.ImgURL, r.ImgURL)
	setString(&a.BirthYear, r.BirthYear)
	setString(&a.DeathYear, r.DeathYear)
}

// BookRequest creates or replaces book fields
type BookRequest struct {
	Title     *string   `json:"title"`
	AuthorID  *string   `json:"authorId"`
	WriteYear *string   `json:"writeYear"`
	Summary   *string   `json:"summary"`
	ISBN      *string   `json:"isbn"`
	Genre     *[]string `json:"genre"`
}

// ValidateCreate requires title and author
func (r BookRequest) ValidateCreate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.AuthorID, validation.Required, is.UUID),
	)
}

// Validate checks a partial update
func (r BookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 300)),
		validation.Field(&r.AuthorID, validation.NilOrNotEmpty, is.UUID),
	)
}

// Apply copies the present fields, except the author, onto the book
func (r BookRequest) Apply(b *Book) {
	setString(&b.Title, r.Title)
	setString(&b.WriteYear, r.WriteYear)
	setString(&b.Summary, r.Summary)
	setString(&b.ISBN, r.ISBN)
	if r.Genre != nil {
		b.Genre = append([]string{}, (*r.Genre)...)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
