package enums

import "fmt"

// ProductCategory groups catalog listings for storefront filtering.
type ProductCategory string

const (
	ProductCategoryFood     ProductCategory = "food"
	ProductCategoryBeverage ProductCategory = "beverage"
	ProductCategoryFashion  ProductCategory = "fashion"
	ProductCategoryCraft    ProductCategory = "craft"
	ProductCategoryOther    ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryFood,
	ProductCategoryBeverage,
	ProductCategoryFashion,
	ProductCategoryCraft,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
