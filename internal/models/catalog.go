package models

// Tag is reference data managed by administrators
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:7;uniqueIndex;not null" json:"color"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

// Ingredient is reference data; recipes quantify it via RecipeIngredient
type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;not null;uniqueIndex:idx_ingredients_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null;uniqueIndex:idx_ingredients_name_unit" json:"measurement_unit"`
}
