package domain

import "time"

// AttributeKind identifies the kind of a recipe attribute.
// Tags and ingredients share the same shape and the same ownership rules;
// the kind selects the backing table and name length limit.
type AttributeKind string

const (
	// KindTag is a short label used to categorize recipes.
	KindTag AttributeKind = "tag"

	// KindIngredient is a component of a recipe.
	KindIngredient AttributeKind = "ingredient"
)

// Name length limits per attribute kind.
const (
	MaxTagNameLength        = 64
	MaxIngredientNameLength = 128
)

// Valid returns true if the kind is a known attribute kind.
func (k AttributeKind) Valid() bool {
	return k == KindTag || k == KindIngredient
}

// MaxNameLength returns the maximum display name length for the kind.
func (k AttributeKind) MaxNameLength() int {
	if k == KindTag {
		return MaxTagNameLength
	}
	return MaxIngredientNameLength
}

// Attribute represents a tag or an ingredient owned by a user.
// Names are not required to be unique per owner; the reconciler reuses an
// existing row with a matching name when one is found.
type Attribute struct {
	// ID is the unique identifier for the attribute (auto-generated).
	ID int64 `json:"id"`

	// UserID is the ID of the owning user. Immutable after creation.
	UserID int64 `json:"-"`

	// Name is the display name.
	Name string `json:"name"`

	// CreatedAt is the timestamp when the attribute was created.
	CreatedAt time.Time `json:"-"`
}

// NewAttribute creates a new Attribute owned by the given user.
func NewAttribute(userID int64, name string) *Attribute {
	return &Attribute{
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// ValidateName checks an attribute name against the kind's limits.
func (k AttributeKind) ValidateName(name string) error {
	if name == "" {
		return NewDomainError(ErrInvalidAttributeName, "name is required", string(k))
	}
	if len(name) > k.MaxNameLength() {
		return NewDomainError(ErrInvalidAttributeName, "name is too long", string(k))
	}
	return nil
}
