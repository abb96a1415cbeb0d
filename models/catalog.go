package models

// Role IDs of the predefined roles.
const (
	RoleIDAdmin          = 1
	RoleIDFinanceOfficer = 2
	RoleIDProjectManager = 3
	RoleIDViewer         = 4
)

// DefaultRoles are the roles seeded on a fresh database.
var DefaultRoles = []Role{
	{RoleID: RoleIDAdmin, Name: "admin", Description: "Manages grants and may submit every module"},
	{RoleID: RoleIDFinanceOfficer, Name: "finance_officer", Description: "Submits financial statements"},
	{RoleID: RoleIDProjectManager, Name: "project_manager", Description: "Submits project and equipment reports"},
	{RoleID: RoleIDViewer, Name: "viewer", Description: "Read-only access to all reports"},
}

// DefaultModules is the built-in report catalog.
var DefaultModules = []Module{
	{ModuleID: 101, Key: "M101", Name: "Balance Sheet", Category: CategoryFinance},
	{ModuleID: 102, Key: "M102", Name: "Income Statement", Category: CategoryFinance},
	{ModuleID: 103, Key: "M103", Name: "Cash Flow Statement", Category: CategoryFinance},
	{ModuleID: 104, Key: "M104", Name: "Budget Execution", Category: CategoryFinance},
	{ModuleID: 201, Key: "M201", Name: "Revenue by Segment", Category: CategoryMarket},
	{ModuleID: 202, Key: "M202", Name: "Bidding Status", Category: CategoryMarket},
	{ModuleID: 203, Key: "M203", Name: "Contract Backlog", Category: CategoryMarket},
	{ModuleID: 301, Key: "M301", Name: "Project Progress", Category: CategoryProject},
	{ModuleID: 302, Key: "M302", Name: "Engineering Cost Summary", Category: CategoryProject},
	{ModuleID: 401, Key: "M401", Name: "Equipment Utilization", Category: CategoryEquipment},
	{ModuleID: 402, Key: "M402", Name: "Component Inventory", Category: CategoryEquipment},
}

// DefaultGrants returns the seeded grant table: admin writes everything,
// viewers read everything, and the two operational roles write their own
// categories and read the rest.
func DefaultGrants() []PermissionGrant {
	writes := map[int][]Category{
		RoleIDFinanceOfficer: {CategoryFinance, CategoryMarket},
		RoleIDProjectManager: {CategoryProject, CategoryEquipment},
	}

	var grants []PermissionGrant
	for _, module := range DefaultModules {
		grants = append(grants,
			PermissionGrant{RoleID: RoleIDAdmin, ModuleID: module.ModuleID, PermissionType: PermissionWrite},
			PermissionGrant{RoleID: RoleIDViewer, ModuleID: module.ModuleID, PermissionType: PermissionRead},
		)
		for _, roleID := range []int{RoleIDFinanceOfficer, RoleIDProjectManager} {
			grants = append(grants, PermissionGrant{RoleID: roleID, ModuleID: module.ModuleID, PermissionType: PermissionRead})
			for _, category := range writes[roleID] {
				if module.Category == category {
					grants = append(grants, PermissionGrant{RoleID: roleID, ModuleID: module.ModuleID, PermissionType: PermissionWrite})
				}
			}
		}
	}
	return grants
}
