package models

// Capability names a single permission flag.
type Capability string

const (
	CapEditUser      Capability = "edit_user"
	CapDeleteUser    Capability = "delete_user"
	CapCreateTask    Capability = "create_task"
	CapEditTask      Capability = "edit_task"
	CapDeleteTask    Capability = "delete_task"
	CapEditTaskState Capability = "edit_task_state"
)

// Permission holds the capability flags of exactly one user.
type Permission struct {
	UserID        string `gorm:"primaryKey;type:varchar(50)" json:"-"`
	EditUser      bool   `gorm:"not null;default:false" json:"edit_user"`
	DeleteUser    bool   `gorm:"not null;default:false" json:"delete_user"`
	CreateTask    bool   `gorm:"not null;default:false" json:"create_task"`
	EditTask      bool   `gorm:"not null;default:false" json:"edit_task"`
	DeleteTask    bool   `gorm:"not null;default:false" json:"delete_task"`
	EditTaskState bool   `gorm:"not null;default:false" json:"edit_task_state"`
}

// Has reports whether the flag for capability is set.
func (p Permission) Has(capability Capability) bool {
	switch capability {
	case CapEditUser:
		return p.EditUser
	case CapDeleteUser:
		return p.DeleteUser
	case CapCreateTask:
		return p.CreateTask
	case CapEditTask:
		return p.EditTask
	case CapDeleteTask:
		return p.DeleteTask
	case CapEditTaskState:
		return p.EditTaskState
	default:
		return false
	}
}
