package models

import "time"

// Activity actions.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionStatus   = "status_change"
	ActionLogin    = "login"
	ActionPayment  = "payment"
	ActionCancel   = "cancel"
	ActionIssue    = "issue"
	ActionReturn   = "return"
	ActionGenerate = "generate"
)

type ActivityLog struct {
	ID          string    `json:"id" db:"id" bson:"_id"`
	BranchID    *string   `json:"branch_id" db:"branch_id" bson:"branch_id,omitempty"`
	UserID      *string   `json:"user_id" db:"user_id" bson:"user_id,omitempty"`
	UserName    string    `json:"user_name" db:"user_name" bson:"user_name"`
	Role        string    `json:"role" db:"role" bson:"role"`
	Module      string    `json:"module" db:"module" bson:"module"`
	Action      string    `json:"action" db:"action" bson:"action"`
	EntityID    string    `json:"entity_id" db:"entity_id" bson:"entity_id"`
	Description string    `json:"description" db:"description" bson:"description"`
	Metadata    Metadata  `json:"metadata" db:"metadata" bson:"metadata,omitempty"`
	IPAddress   string    `json:"ip_address" db:"ip_address" bson:"ip_address"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" bson:"created_at"`
}
