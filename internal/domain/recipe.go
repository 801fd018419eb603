package domain

import "time"

// Maximum field lengths for recipes.
const (
	MaxRecipeTitleLength       = 255
	MaxRecipeDescriptionLength = 1024
	MaxRecipeLinkLength        = 255
)

// Recipe represents a recipe owned by a user.
// The tag and ingredient association sets only ever contain attributes owned
// by the same user as the recipe; the reconciler enforces this on every write
// path.
type Recipe struct {
	// ID is the unique identifier for the recipe (auto-generated).
	ID int64 `json:"id"`

	// UserID is the ID of the owning user. Immutable after creation.
	UserID int64 `json:"-"`

	// Title is the required display title.
	Title string `json:"title"`

	// Description is an optional longer text.
	Description string `json:"description,omitempty"`

	// TimeMinutes is the required preparation time in minutes.
	TimeMinutes int `json:"time_minutes"`

	// Price is the required cost of the recipe, fixed to two decimal places.
	Price Price `json:"price"`

	// Link is an optional external reference.
	Link string `json:"link,omitempty"`

	// ImagePath is the stored reference returned by the image store.
	// Empty when no image has been uploaded.
	ImagePath string `json:"image,omitempty"`

	// Tags is the unordered set of associated tags.
	Tags []*Attribute `json:"tags"`

	// Ingredients is the unordered set of associated ingredients.
	Ingredients []*Attribute `json:"ingredients"`

	// CreatedAt is the timestamp when the recipe was created.
	CreatedAt time.Time `json:"-"`

	// UpdatedAt is the timestamp when the recipe was last updated.
	UpdatedAt time.Time `json:"-"`
}

// NewRecipe creates a new Recipe owned by the given user.
func NewRecipe(userID int64, title string, timeMinutes int, price Price) *Recipe {
	now := time.Now().UTC()
	return &Recipe{
		UserID:      userID,
		Title:       title,
		TimeMinutes: timeMinutes,
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the recipe's required fields and limits.
func (r *Recipe) Validate() error {
	if r.Title == "" {
		return NewDomainError(ErrInvalidRecipe, "title is required", "")
	}
	if len(r.Title) > MaxRecipeTitleLength {
		return NewDomainError(ErrInvalidRecipe, "title is too long", r.Title)
	}
	if len(r.Description) > MaxRecipeDescriptionLength {
		return NewDomainError(ErrInvalidRecipe, "description is too long", r.Title)
	}
	if len(r.Link) > MaxRecipeLinkLength {
		return NewDomainError(ErrInvalidRecipe, "link is too long", r.Title)
	}
	if r.TimeMinutes <= 0 {
		return NewDomainError(ErrInvalidRecipe, "time_minutes must be positive", r.Title)
	}
	if r.Price < 0 || r.Price > MaxPrice {
		return NewDomainError(ErrInvalidRecipe, "price is out of range", r.Title)
	}
	return nil
}

// HasTag reports whether the recipe's tag set contains the given ID.
func (r *Recipe) HasTag(id int64) bool {
	for _, t := range r.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// HasIngredient reports whether the recipe's ingredient set contains the given ID.
func (r *Recipe) HasIngredient(id int64) bool {
	for _, i := range r.Ingredients {
		if i.ID == id {
			return true
		}
	}
	return false
}
