package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage"
)

type NotificationService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.Notification, error)
	MarkRead(ctx context.Context, actor policy.Actor, id string) (*models.Notification, error)
}

type notificationService struct {
	stg storage.INotificationStorage
	log logrus.FieldLogger
}

func NewNotificationService(stg storage.IStorage, log logrus.FieldLogger) NotificationService {
	return &notificationService{stg: stg.Notification(), log: log}
}

// List always returns the actor's own notifications, whatever the role.
func (s *notificationService) List(ctx context.Context, actor policy.Actor) ([]models.Notification, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindNotification, Op: policy.OpList}); err != nil {
		return nil, err
	}
	ns, err := s.stg.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return ns, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor policy.Actor, id string) (*models.Notification, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindNotification, Op: policy.OpUpdate, OwnerID: actor.ID}); err != nil {
		return nil, err
	}
	n, err := s.stg.MarkRead(ctx, id, actor.ID)
	if err != nil {
		return nil, classify(err, "Notification not found")
	}
	return n, nil
}

// notifier writes job notifications. Failures are logged and never fail the
// request that triggered them.
type notifier struct {
	stg storage.INotificationStorage
	log logrus.FieldLogger
}

func (n *notifier) send(ctx context.Context, userID, title, message string, typ models.NotificationType, data map[string]string) {
	if userID == "" {
		return
	}
	rec := &models.Notification{UserID: userID, Title: title, Message: message, Type: typ}
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			s := string(raw)
			rec.Data = &s
		}
	}
	if err := n.stg.Create(ctx, rec); err != nil {
		n.log.WithError(err).WithField("user_id", userID).Warn("Failed to store notification")
	}
}

func (n *notifier) jobAssigned(ctx context.Context, job *models.Job) {
	n.send(ctx, job.AssigneeUserID(), "New job assigned",
		fmt.Sprintf("You have been assigned %q", job.Title),
		models.NotifyInfo, map[string]string{"job_id": job.ID})
}

func (n *notifier) jobStatusChanged(ctx context.Context, job *models.Job) {
	typ := models.NotifyInfo
	switch job.Status {
	case models.JobCompleted:
		typ = models.NotifySuccess
	case models.JobCancelled:
		typ = models.NotifyWarning
	}
	n.send(ctx, job.CreatedBy, "Job status updated",
		fmt.Sprintf("%q is now %s", job.Title, job.Status),
		typ, map[string]string{"job_id": job.ID, "status": string(job.Status)})
}
