package models

import "sort"

// Category groups modules for aggregate statistics. The set is closed: only
// the constants below are valid.
type Category string

const (
	CategoryFinance   Category = "finance"
	CategoryMarket    Category = "market"
	CategoryProject   Category = "project"
	CategoryEquipment Category = "equipment"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFinance,
	CategoryMarket,
	CategoryProject,
	CategoryEquipment,
}

var categoryLabels = map[Category]string{
	CategoryFinance:   "Financial Statements",
	CategoryMarket:    "Market & Bidding",
	CategoryProject:   "Projects & Engineering",
	CategoryEquipment: "Equipment & Components",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Rank is the position of c in Categories, or len(Categories) when unknown.
func (c Category) Rank() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return len(Categories)
}

// Module is a catalog entry identifying one submittable report type.
type Module struct {
	ModuleID int      `gorm:"primaryKey;column:module_id" json:"module_id"`
	Key      string   `gorm:"column:module_key;size:32;not null;uniqueIndex:uq_modules_key" json:"module_key"`
	Name     string   `gorm:"column:module_name;size:128;not null" json:"module_name"`
	Category Category `gorm:"column:category;size:32;not null;index" json:"category"`
}

func (Module) TableName() string {
	return "modules"
}

// SortModules orders modules by category rank, then name, then id.
func SortModules(modules []Module) {
	sort.SliceStable(modules, func(i, j int) bool {
		ri, rj := modules[i].Category.Rank(), modules[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		if modules[i].Name != modules[j].Name {
			return modules[i].Name < modules[j].Name
		}
		return modules[i].ModuleID < modules[j].ModuleID
	})
}
