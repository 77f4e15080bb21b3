package library

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultAuthorImage is used when an author is created without an image
const DefaultAuthorImage = "https://static.thenounproject.com/png/556468-200.png"

// Account is a regular library member
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	ID                uuid.UUID      `bun:"id,pk,type:text" json:"id"`
	Username          string         `bun:"username,notnull,unique" json:"username"`
	Email             string         `bun:"email,notnull,unique" json:"email"`
	PasswordHash      string         `bun:"password_hash,notnull" json:"-"`
	Gravatar          string         `bun:"gravatar" json:"gravatar,omitempty"`
	EmailConfirmed    bool           `bun:"email_confirmed,notnull" json:"emailConfirmed"`
	ConfirmationToken string         `bun:"confirmation_token,notnull" json:"confirmationToken"`
	Banned            bool           `bun:"banned,notnull" json:"banned"`
	Library           []LibraryEntry `bun:"library,type:text" json:"library"`
	RegisteredAt      time.Time      `bun:"registered_at,notnull" json:"registeredAt"`
}

// LibraryEntry is a book saved to an account's library
type LibraryEntry struct {
	BookID  uuid.UUID `json:"bookId"`
	AddedAt time.Time `json:"addedAt"`
}

// HasBook reports whether the book is already in the library
func (a *Account) HasBook(bookID uuid.UUID) bool {
	for _, e := range a.Library {
		if e.BookID == bookID {
			return true
		}
	}
	return false
}

// Permissions are the capability flags of an admin account
type Permissions struct {
	SuperAdmin     bool `bun:"super_admin,notnull" json:"superAdmin"`
	ManageUsers    bool `bun:"manage_users,notnull" json:"manageUsers"`
	ManageComments bool `bun:"manage_comments,notnull" json:"manageComments"`
	Create         bool `bun:"create,notnull" json:"create"`
	Modify         bool `bun:"modify,notnull" json:"modify"`
	Delete         bool `bun:"delete,notnull" json:"delete"`
}

// AdminAccount is a staff account holding permissions
type AdminAccount struct {
	bun.BaseModel `bun:"table:admins,alias:adm"`
	ID            uuid.UUID   `bun:"id,pk,type:text" json:"id"`
	Username      string      `bun:"username,notnull,unique" json:"username"`
	Email         string      `bun:"email,nullzero,unique" json:"email,omitempty"`
	PasswordHash  string      `bun:"password_hash,notnull" json:"-"`
	Permissions   Permissions `bun:"embed:perm_" json:"permissions"`
	CreatedAt     time.Time   `bun:"created_at,notnull" json:"createdAt"`
}

// Author of books. Books is a lookup list, authors do not own books.
type Author struct {
	bun.BaseModel `bun:"table:authors,alias:aut"`
	ID            uuid.UUID   `bun:"id,pk,type:text" json:"id"`
	Name          string      `bun:"name,notnull" json:"name"`
	Summary       string      `bun:"summary" json:"summary,omitempty"`
	ImgURL        string      `bun:"img_url" json:"imgUrl"`
	BirthYear     string      `bun:"birth_year" json:"birthYear,omitempty"`
	DeathYear     string      `bun:"death_year" json:"deathYear,omitempty"`
	Books         []uuid.UUID `bun:"books,type:text" json:"books"`
	AddedAt       time.Time   `bun:"added_at,notnull" json:"addedAt"`
}

// Book references its author by id
type Book struct {
	bun.BaseModel `bun:"table:books,alias:bok"`
	ID            uuid.UUID `bun:"id,pk,type:text" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	AuthorID      uuid.UUID `bun:"author_id,notnull,type:text" json:"authorId"`
	WriteYear     string    `bun:"write_year" json:"writeYear,omitempty"`
	Summary       string    `bun:"summary" json:"summary,omitempty"`
	ISBN          string    `bun:"isbn" json:"isbn,omitempty"`
	Genre         []string  `bun:"genre,type:text" json:"genre"`
	AddedAt       time.Time `bun:"added_at,notnull" json:"addedAt"`
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
