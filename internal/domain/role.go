package domain

// Role - роль пользователя
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleHR             Role = "HR"
	RoleDepartmentHead Role = "DEPARTMENT_HEAD"
	RoleEmployee       Role = "EMPLOYEE"
)

// Valid сообщает, известна ли роль
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleDepartmentHead, RoleEmployee:
		return true
	}
	return false
}

// Principal - аутентифицированный пользователь, выполняющий операцию
type Principal struct {
	ID                int64
	Role              Role
	Department        string
	ManagedDepartment string
}

// Scope ограничивает выборку назначений, видимых принципалу.
// Пустые поля означают отсутствие ограничения.
type Scope struct {
	CreatedByID *int64
	Department  *string
}

// Capabilities описывает, что разрешено роли
type Capabilities interface {
	// IsPrivileged - ADMIN или HR
	IsPrivileged() bool
	CanReview() bool
	CanCreateFor(department string) bool
	// AccessibleDepartments возвращает all=true, если ограничений по отделам нет
	AccessibleDepartments() (all bool, departments []string)
	// ReminderScope возвращает ok=false, если роль не может рассылать напоминания
	ReminderScope() (scope Scope, ok bool)
}

// Capabilities возвращает набор возможностей для роли принципала.
// Неизвестная роль не получает никаких прав.
func (p Principal) Capabilities() Capabilities {
	switch p.Role {
	case RoleAdmin:
		return adminCapabilities{}
	case RoleHR:
		return hrCapabilities{id: p.ID}
	case RoleDepartmentHead:
		return departmentHeadCapabilities{managed: p.ManagedDepartment}
	case RoleEmployee:
		return employeeCapabilities{}
	default:
		return employeeCapabilities{}
	}
}

type adminCapabilities struct{}

func (adminCapabilities) IsPrivileged() bool { return true }
func (adminCapabilities) CanReview() bool { return true }
func (adminCapabilities) CanCreateFor(string) bool { return true }
func (adminCapabilities) AccessibleDepartments() (bool, []string) { return true, nil }
func (adminCapabilities) ReminderScope() (Scope, bool) { return Scope{}, true }

type hrCapabilities struct {
	id int64
}

func (hrCapabilities) IsPrivileged() bool { return true }
func (hrCapabilities) CanReview() bool { return true }
func (hrCapabilities) CanCreateFor(string) bool { return true }
func (hrCapabilities) AccessibleDepartments() (bool, []string) { return true, nil }

// HR рассылает напоминания только по своим запросам
func (c hrCapabilities) ReminderScope() (Scope, bool) {
	id := c.id
	return Scope{CreatedByID: &id}, true
}

type departmentHeadCapabilities struct {
	managed string
}

func (departmentHeadCapabilities) IsPrivileged() bool { return false }
func (departmentHeadCapabilities) CanReview() bool { return false }

func (c departmentHeadCapabilities) CanCreateFor(department string) bool {
	return c.managed != "" && department == c.managed
}

func (c departmentHeadCapabilities) AccessibleDepartments() (bool, []string) {
	if c.managed == "" {
		return false, nil
	}
	return false, []string{c.managed}
}

func (c departmentHeadCapabilities) ReminderScope() (Scope, bool) {
	if c.managed == "" {
		return Scope{}, false
	}
	dept := c.managed
	return Scope{Department: &dept}, true
}

type employeeCapabilities struct{}

func (employeeCapabilities) IsPrivileged() bool { return false }
func (employeeCapabilities) CanReview() bool { return false }
func (employeeCapabilities) CanCreateFor(string) bool { return false }
func (employeeCapabilities) AccessibleDepartments() (bool, []string) { return false, nil }
func (employeeCapabilities) ReminderScope() (Scope, bool) { return Scope{}, false }
