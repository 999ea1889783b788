package models

type ProductCategory string

const (
	CategoryMachinery           ProductCategory = "Machinery"
	CategoryMachineryTools      ProductCategory = "Machinery Tools"
	CategoryBrassComponents     ProductCategory = "Brass Components"
	CategorySSComponents        ProductCategory = "SS Components"
	CategoryPrecisionComponents ProductCategory = "Precision Components"
)

// Categories lists every product category in display order.
var Categories = []ProductCategory{
	CategoryMachinery,
	CategoryMachineryTools,
	CategoryBrassComponents,
	CategorySSComponents,
	CategoryPrecisionComponents,
}

func (c ProductCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       ProductCategory `json:"category"`
	Description    string          `json:"description"`
	Application    string          `json:"application"`
	Image          string          `json:"image"`
	ManufacturedIn string          `json:"manufacturedIn"`
}

type Leader struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Image       string `json:"image"`
	Message     string `json:"message"`
}

type Leadership struct {
	CEO     Leader `json:"ceo"`
	OpsHead Leader `json:"opsHead"`
}

// SEOContent is the structured output of the SEO generator.
type SEOContent struct {
	TitleTag        string   `json:"titleTag"`
	MetaDescription string   `json:"metaDescription"`
	KeywordsUsed    []string `json:"keywordsUsed"`
}
