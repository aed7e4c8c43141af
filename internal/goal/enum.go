package goal

type Category string

const (
	CategoryHealth    Category = "Health"
	CategoryCareer    Category = "Career"
	CategoryEducation Category = "Education"
	CategoryFinance   Category = "Finance"
	CategoryPersonal  Category = "Personal"
	CategoryOther     Category = "Other"
)

var AllCategories = []Category{
	CategoryHealth,
	CategoryCareer,
	CategoryEducation,
	CategoryFinance,
	CategoryPersonal,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, v := range AllCategories {
		if c == v {
			return true
		}
	}
	return false
}
