package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"circle-media/backend/internal/social"
	apperrors "circle-media/backend/pkg/errors"
)

const opNotify = "notify"

// Notify applies one event to the recipient's notification feed. Repeating
// an event removes the earlier notification, so callers issue the same
// request again when the underlying action is reversed.
func (e *Engine) Notify(ctx context.Context, req NotifyRequest) (res *NotifyResult, err error) {
	defer e.observe(opNotify, time.Now(), &err)

	if err := requireID(opNotify, "recipient id", req.RecipientID); err != nil {
		return nil, err
	}
	if err := requireID(opNotify, "originator id", req.OriginatorID); err != nil {
		return nil, err
	}
	typ, err := social.ParseNotificationType(req.Type)
	if err != nil {
		return nil, apperrors.NewInvalidOperation(opNotify, err.Error())
	}

	recipient, err := e.loadUser(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}

	out := social.UpsertNotification(recipient, social.Notification{
		ID:               e.newID(),
		OriginatorUserID: req.OriginatorID,
		Type:             typ,
		PostID:           req.PostID,
		CreatedAt:        e.now(),
	})
	if err := e.saveUser(ctx, recipient); err != nil {
		return nil, err
	}

	e.logger.Debug("Notification applied",
		zap.String("recipient_id", recipient.ID),
		zap.String("originator_id", req.OriginatorID),
		zap.String("type", string(typ)),
		zap.String("post_id", req.PostID),
		zap.String("outcome", string(out)),
	)
	return &NotifyResult{Recipient: recipient, Outcome: out}, nil
}
