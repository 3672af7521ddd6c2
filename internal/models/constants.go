package models

// Роли пользователей
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleClient:     {},
	RoleFreelancer: {},
	RoleAdmin:      {},
}

// Варианты разрешения спора
const (
	ResolutionRelease = "RELEASE"
	ResolutionRefund  = "REFUND"
	ResolutionPartial = "PARTIAL"
)

// ValidResolutions список валидных решений по спору
var ValidResolutions = map[string]struct{}{
	ResolutionRelease: {},
	ResolutionRefund:  {},
	ResolutionPartial: {},
}

// AcceptedBankCodes коды банков, доступные для вывода средств
var AcceptedBankCodes = map[string]struct{}{
	"MAYBANK":   {},
	"CIMB":      {},
	"PUBLIC":    {},
	"RHB":       {},
	"HONGLEONG": {},
	"AMBANK":    {},
	"BANKISLAM": {},
	"BSN":       {},
}

// MinDisputeReasonLen минимальная длина причины спора
const MinDisputeReasonLen = 10
