package category

type Category struct {
	ID          int     `json:"id" db:"category_id"`
	Name        string  `json:"name" db:"name"`
	Slug        string  `json:"slug" db:"slug"`
	Description *string `json:"description" db:"description"`
	Icon        string  `json:"icon" db:"icon"`
}

type CategoryNew struct {
	Name        string  `json:"name" validate:"required"`
	Slug        string  `json:"slug" validate:"required,lowercase"`
	Description *string `json:"description"`
	Icon        string  `json:"icon" validate:"required"`
}

func New(nc CategoryNew) Category {
	return Category{
		Name:        nc.Name,
		Slug:        nc.Slug,
		Description: nc.Description,
		Icon:        nc.Icon,
	}
}
