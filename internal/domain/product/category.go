package product

import "strings"

// Category is a catalog classification code.
type Category string

// Category codes accepted in catalog feeds.
const (
	CategoryRegistration Category = "registration"
	CategoryGST          Category = "gst"
	CategoryLicense      Category = "license"
	CategoryImportExport Category = "iec"
	CategoryTax          Category = "tax"
	CategoryMCA          Category = "mca"
	CategoryIPR          Category = "ipr"
	CategoryDrafting     Category = "drafting"
	CategoryCreatives    Category = "creatives"
	CategoryWeb          Category = "web"
	CategoryEListing     Category = "e-listing"
	CategoryGrocery      Category = "grocery"
	CategoryPackaging    Category = "packaging"
)

// CategoryAll is the filter sentinel meaning "no category filter". It is never
// a valid product category.
const CategoryAll Category = "all"

// CategoryInfo pairs a category code with its display name.
type CategoryInfo struct {
	Code Category
	Name string
}

// vocabulary is ordered as shown in the catalog sidebar.
var vocabulary = []CategoryInfo{
	{CategoryRegistration, "Business Registration"},
	{CategoryGST, "GST Services"},
	{CategoryLicense, "License & Permits"},
	{CategoryImportExport, "Import Export"},
	{CategoryTax, "Tax Services"},
	{CategoryMCA, "MCA Services"},
	{CategoryIPR, "IPR"},
	{CategoryDrafting, "Drafting and Realestate"},
	{CategoryCreatives, "Designing Services"},
	{CategoryWeb, "Web Solutions"},
	{CategoryEListing, "eCommerce listing"},
	{CategoryGrocery, "Groceries"},
	{CategoryPackaging, "Packaging Materials"},
}

// Categories returns the filter vocabulary, starting with the "all" sentinel.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(vocabulary)+1)
	out = append(out, CategoryInfo{Code: CategoryAll, Name: "All"})
	return append(out, vocabulary...)
}

// LookupCategory resolves s against the vocabulary case-insensitively and
// returns the canonical code. The "all" sentinel is not a product category
// and is reported as not found.
func LookupCategory(s string) (Category, bool) {
	for _, c := range vocabulary {
		if strings.EqualFold(string(c.Code), s) {
			return c.Code, true
		}
	}
	return "", false
}

// Matches reports whether c equals other ignoring case.
func (c Category) Matches(other Category) bool {
	return strings.EqualFold(string(c), string(other))
}

// DisplayName returns the sidebar label of c, or the raw code for values
// outside the vocabulary.
func (c Category) DisplayName() string {
	if c.Matches(CategoryAll) {
		return "All"
	}
	for _, info := range vocabulary {
		if c.Matches(info.Code) {
			return info.Name
		}
	}
	return string(c)
}
