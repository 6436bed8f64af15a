package approval

import (
	"strconv"

	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/db/models"
	"github.com/postdeck/postdeck/internal/notify"
)

// AssignmentCreatedEvent tells a reviewer, or everybody holding a role, that a post waits for them.
type AssignmentCreatedEvent struct {
	AssignmentID   uint64       `json:"assignmentId"`
	InstanceID     uint64       `json:"instanceId"`
	PostID         uint64       `json:"postId"`
	TeamID         uint64       `json:"teamId"`
	StepOrder      int          `json:"stepOrder"`
	AssignedUserID *uint64      `json:"assignedUserId,omitempty"`
	Role           *models.Role `json:"role,omitempty"`
}

// InstanceCompletedEvent tells the submitter how their post's approval ended.
type InstanceCompletedEvent struct {
	InstanceID    uint64                `json:"instanceId"`
	PostID        uint64                `json:"postId"`
	TeamID        uint64                `json:"teamId"`
	SubmittedByID uint64                `json:"submittedById"`
	Status        models.InstanceStatus `json:"status"`
	ReviewerID    uint64                `json:"reviewerId,omitempty"`
	Feedback      string                `json:"feedback,omitempty"`
}

func enqueueAssignments(tx *gorm.DB, inst *models.ApprovalInstance, rows []models.ApprovalAssignment) error {
	for i := range rows {
		a := &rows[i]

		err := notify.Enqueue(tx, notify.TopicAssignmentCreated, instanceKey(inst), AssignmentCreatedEvent{
			AssignmentID:   a.ID,
			InstanceID:     inst.ID,
			PostID:         inst.PostID,
			TeamID:         inst.TeamID,
			StepOrder:      a.StepOrder,
			AssignedUserID: a.AssignedUserID,
			Role:           a.Role,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func enqueueCompleted(tx *gorm.DB, inst *models.ApprovalInstance, reviewerID uint64, feedback string) error {
	topic := notify.TopicInstanceApproved
	if inst.Status == models.InstanceRejected {
		topic = notify.TopicInstanceRejected
	}

	return notify.Enqueue(tx, topic, instanceKey(inst), InstanceCompletedEvent{
		InstanceID:    inst.ID,
		PostID:        inst.PostID,
		TeamID:        inst.TeamID,
		SubmittedByID: inst.SubmittedByID,
		Status:        inst.Status,
		ReviewerID:    reviewerID,
		Feedback:      feedback,
	})
}

// instanceKey keeps all messages of an instance in one kafka partition.
func instanceKey(inst *models.ApprovalInstance) string {
	return strconv.FormatUint(inst.ID, 10)
}
