package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserRegistered   = "user.registered"
	EventTypePasswordRehashed = "user.password_rehashed"
	EventTypeBusinessCreated  = "business.created"
	EventTypeBusinessDeleted  = "business.deleted"
	EventTypeRoleCreated      = "role.created"
	EventTypeRoleUpdated      = "role.updated"
	EventTypeRoleDeleted      = "role.deleted"
	EventTypeRoleAssigned     = "role.assigned"
	EventTypeRoleUnassigned   = "role.unassigned"
)

// AllTypes lists every event type raised by the services.
func AllTypes() []string {
	return []string{
		EventTypeUserRegistered,
		EventTypePasswordRehashed,
		EventTypeBusinessCreated,
		EventTypeBusinessDeleted,
		EventTypeRoleCreated,
		EventTypeRoleUpdated,
		EventTypeRoleDeleted,
		EventTypeRoleAssigned,
		EventTypeRoleUnassigned,
	}
}

func newDomainEvent(eventType string, data map[string]interface{}) DomainEvent {
	return DomainEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func NewUserRegisteredEvent(userID int64, username string) DomainEvent {
	return newDomainEvent(EventTypeUserRegistered, map[string]interface{}{
		"user_id":  userID,
		"username": username,
	})
}

func NewPasswordRehashedEvent(userID int64, algorithm string) DomainEvent {
	return newDomainEvent(EventTypePasswordRehashed, map[string]interface{}{
		"user_id":   userID,
		"algorithm": algorithm,
	})
}

func NewBusinessEvent(eventType string, actorID, businessID int64, name string) DomainEvent {
	return newDomainEvent(eventType, map[string]interface{}{
		"actor_id":    actorID,
		"business_id": businessID,
		"name":        name,
	})
}

func NewRoleEvent(eventType string, actorID, businessID, roleID int64) DomainEvent {
	return newDomainEvent(eventType, map[string]interface{}{
		"actor_id":    actorID,
		"business_id": businessID,
		"role_id":     roleID,
	})
}

func NewRoleMembershipEvent(eventType string, actorID, businessID, roleID, userID int64) DomainEvent {
	return newDomainEvent(eventType, map[string]interface{}{
		"actor_id":    actorID,
		"business_id": businessID,
		"role_id":     roleID,
		"user_id":     userID,
	})
}
